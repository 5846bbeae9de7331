package core

// DetectFormat picks the importer for raw CSV text. Catalog exports are
// recognized by their marker headers appearing anywhere in the text; anything
// else is treated as a simple header-row CSV.
func DetectFormat(text string) Format {
	if containsAll(text, detectMarkers) {
		return FormatCatalog
	}
	return FormatSimple
}
