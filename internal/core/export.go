package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// excludedExportKeys never become export columns.
var excludedExportKeys = map[string]bool{"id": true, "createdAt": true, "updatedAt": true}

// exportRecord is a product flattened to ordered key/value pairs.
type exportRecord struct {
	keys   []string
	values map[string]any
}

func (r *exportRecord) set(key string, v any) {
	if excludedExportKeys[key] {
		return
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// flatten lists a product's present fields: core fields, then attributes in
// key order, then variation data.
func flatten(p Product) exportRecord {
	r := exportRecord{values: make(map[string]any)}

	fields := []struct {
		key string
		val string
	}{
		{"product", p.Product},
		{"brand", p.Brand},
		{"account", p.Account},
		{"status", p.Status},
		{"module", p.Module},
		{"asin", p.ASIN},
		{"sku", p.SKU},
	}
	for _, f := range fields {
		if f.val != "" {
			r.set(f.key, f.val)
		}
	}

	attrKeys := make([]string, 0, len(p.Attributes))
	for k := range p.Attributes {
		attrKeys = append(attrKeys, k)
	}
	sort.Strings(attrKeys)
	for _, k := range attrKeys {
		r.set(k, p.Attributes[k])
	}

	if len(p.Variations) > 0 {
		r.set("variations", strings.Join(p.Variations, ","))
	}
	if len(p.VariationsData) > 0 {
		if b, err := json.Marshal(p.VariationsData); err == nil {
			r.set("variationsData", string(b))
		}
	}
	return r
}

// exportColumns returns the union of keys across records in first-seen order.
func exportColumns(records []exportRecord) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, k := range r.keys {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// ExportCSV renders products as CSV text with a header row. An empty list
// yields "".
func ExportCSV(products []Product) string {
	if len(products) == 0 {
		return ""
	}

	records := make([]exportRecord, len(products))
	for i, p := range products {
		records[i] = flatten(p)
	}
	cols := exportColumns(records)

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(quoteAll(cols), ","))
	for _, r := range records {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatCell(r.values[c])
		}
		lines = append(lines, strings.Join(cells, ","))
	}
	return strings.Join(lines, "\n")
}

func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = quoteCSV(v)
	}
	return out
}

// formatCell renders a value; numbers are written as-is.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return quoteCSV(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return quoteCSV(fmt.Sprint(x))
	}
}

// quoteCSV wraps s in quotes when it holds a comma or quote, doubling any
// internal quotes.
func quoteCSV(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
