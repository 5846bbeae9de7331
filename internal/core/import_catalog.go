package core

import (
	"strings"

	"github.com/samber/lo"
)

// Catalog defaults for fields the sheet does not supply.
const (
	catalogSource = "csv-import"
)

// ImportCatalog groups a catalog export into products with variations.
//
// The header line is located within the first MaxHeaderSearchRows lines.
// Rows are grouped by the title text before the first comma. The first row of
// a group supplies the shared fields; every row with a size adds a variation.
func ImportCatalog(text string) ([]Product, error) {
	lines := splitLines(text)

	headerIdx := findCatalogHeader(lines)
	if headerIdx < 0 {
		return nil, newImportError("the catalog header must appear within the first 20 lines",
			"catalog header not found (looked for %q, %q, %q)", ColProductImages, ColDateAdded, ColBrandName)
	}
	header := ParseLine(lines[headerIdx])

	g := newGrouper()
	for _, line := range lines[headerIdx+1:] {
		fields := ParseLine(line)
		if isBlankRow(fields) {
			continue
		}
		g.add(zipRow(header, fields))
	}

	products := g.products()
	if len(products) == 0 {
		return nil, newImportError("check that data rows follow the header and have a product title",
			"no valid product rows found")
	}
	return products, nil
}

// findCatalogHeader returns the index of the header line, or -1.
func findCatalogHeader(lines []string) int {
	limit := min(len(lines), MaxHeaderSearchRows)
	for i := 0; i < limit; i++ {
		if containsAll(lines[i], headerMarkers) {
			return i
		}
	}
	return -1
}

// BaseName returns the grouping key for a listing title: the text before the
// first comma, trimmed.
func BaseName(title string) string {
	if i := strings.Index(title, ","); i >= 0 {
		title = title[:i]
	}
	return strings.TrimSpace(title)
}

// grouper collects rows into products keyed by base name, preserving the
// order in which each name was first seen.
type grouper struct {
	order  []string
	byName map[string]*Product
}

func newGrouper() *grouper {
	return &grouper{byName: make(map[string]*Product)}
}

func (g *grouper) add(r row) {
	name := BaseName(r.get(ColProductTitle))
	if name == "" {
		return
	}

	p, ok := g.byName[name]
	if !ok {
		p = newShell(name, r)
		g.byName[name] = p
		g.order = append(g.order, name)
	}

	data := r.variantData()

	// First non-empty identifier wins.
	setOnce(&p.ASIN, data.ASIN)
	setOnce(&p.SKU, data.SKU)
	setOnceAttr(p, "parentAsin", data.ParentASIN)
	setOnceAttr(p, "parentSku", data.ParentSKU)

	if data.Size == "" {
		return
	}
	if !lo.Contains(p.Variations, data.Size) {
		p.Variations = append(p.Variations, data.Size)
	}
	if p.VariationsData == nil {
		p.VariationsData = make(map[string]VariantData)
	}
	p.VariationsData[data.Size] = data
}

func (g *grouper) products() []Product {
	return lo.Map(g.order, func(name string, _ int) Product {
		return *g.byName[name]
	})
}

// newShell builds the shared product from the first row of a group.
func newShell(name string, r row) *Product {
	p := &Product{
		Product: name,
		Brand:   r.get(ColBrandName),
		Account: r.get(ColAccount),
		Status:  lo.CoalesceOrEmpty(r.get(ColStatus), StatusPending),
		Module:  lo.CoalesceOrEmpty(r.get(ColModule), ModuleCatalog),
		Attributes: map[string]string{
			"source": lo.CoalesceOrEmpty(r.get(ColSource), catalogSource),
		},
	}
	for _, a := range sharedAttributes {
		if v := r.get(a.col); v != "" {
			p.Attributes[a.key] = v
		}
	}
	return p
}

func setOnce(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func setOnceAttr(p *Product, key, v string) {
	if v == "" || p.Attributes[key] != "" {
		return
	}
	p.Attributes[key] = v
}
