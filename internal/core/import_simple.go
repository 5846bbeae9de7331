package core

import "strings"

// ImportSimple maps a header-row CSV onto flat product records.
//
// Header cells are lower-cased and used as keys for every following line by
// position. Lines are not skipped when blank, and short lines yield partial
// records. Status defaults to "pending" and module to "selection".
func ImportSimple(text string) ([]Product, error) {
	lines := splitLines(strings.TrimSpace(text))
	if len(lines) < 2 {
		return nil, newImportError("include a header row and at least one data row",
			"csv must contain a header and at least one row")
	}

	header := ParseLine(lines[0])
	for i := range header {
		header[i] = strings.ToLower(header[i])
	}

	products := make([]Product, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := ParseLine(line)
		var p Product
		for i, key := range header {
			if i >= len(values) || key == "" {
				continue
			}
			setSimpleField(&p, key, values[i])
		}
		if p.Status == "" {
			p.Status = StatusPending
		}
		if p.Module == "" {
			p.Module = ModuleSelection
		}
		products = append(products, p)
	}

	return products, nil
}

// setSimpleField assigns a lower-cased column to the matching core field,
// falling back to the attribute map.
func setSimpleField(p *Product, key, value string) {
	switch key {
	case "product":
		p.Product = value
	case "brand":
		p.Brand = value
	case "account":
		p.Account = value
	case "status":
		p.Status = value
	case "module":
		p.Module = value
	case "asin":
		p.ASIN = value
	case "sku":
		p.SKU = value
	case "id", "createdat", "updatedat":
		// assigned by the store
	default:
		if p.Attributes == nil {
			p.Attributes = make(map[string]string)
		}
		p.Attributes[key] = value
	}
}
