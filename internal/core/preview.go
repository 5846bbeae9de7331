package core

// PreviewCSV runs detection and import on text without storing anything.
// The returned products have no ids or timestamps.
func PreviewCSV(text string) ImportResult {
	format, products, err := parseImport(text)
	if err != nil {
		return ImportResult{Format: format, Error: importMessage(err)}
	}

	configs := 0
	for _, p := range products {
		if p.HasVariations() {
			configs++
		}
	}
	return ImportResult{Success: true, Format: format, Products: products, Configs: configs}
}
