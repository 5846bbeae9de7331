package core

import "time"

// Pipeline stages a product can belong to.
const (
	ModuleSelection   = "selection"
	ModuleDevelopment = "development"
	ModuleCatalog     = "catalog"
)

// Status values assigned when the source row does not carry one.
const (
	StatusPending = "pending"
)

// Product is a single catalog record. The classification fields are required;
// anything else imported alongside them lives in Attributes.
type Product struct {
	ID      string `json:"id"`
	Product string `json:"product"`
	Brand   string `json:"brand"`
	Account string `json:"account"`
	Status  string `json:"status"`
	Module  string `json:"module"`
	ASIN    string `json:"asin,omitempty"`
	SKU     string `json:"sku,omitempty"`

	// Attributes holds free-form fields (marketing, label, listing data).
	Attributes map[string]string `json:"attributes,omitempty"`

	// Variations lists variant labels in first-seen order. Every label has
	// an entry in VariationsData.
	Variations     []string               `json:"variations,omitempty"`
	VariationsData map[string]VariantData `json:"variationsData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasVariations reports whether the product was grouped from several rows.
func (p Product) HasVariations() bool {
	return len(p.Variations) > 0
}

// Attribute returns the named free-form attribute or "".
func (p Product) Attribute(key string) string {
	if p.Attributes == nil {
		return ""
	}
	return p.Attributes[key]
}

// clone returns a deep copy so callers cannot mutate store state.
func (p Product) clone() Product {
	out := p
	if p.Attributes != nil {
		out.Attributes = make(map[string]string, len(p.Attributes))
		for k, v := range p.Attributes {
			out.Attributes[k] = v
		}
	}
	if p.Variations != nil {
		out.Variations = append([]string(nil), p.Variations...)
	}
	if p.VariationsData != nil {
		out.VariationsData = make(map[string]VariantData, len(p.VariationsData))
		for k, v := range p.VariationsData {
			out.VariationsData[k] = v
		}
	}
	return out
}

// VariantData is the per-variant attribute bundle captured from one catalog
// row. Every field is empty when the source column is missing.
type VariantData struct {
	Size       string `json:"size"`
	ASIN       string `json:"asin"`
	ParentASIN string `json:"parentAsin"`
	SKU        string `json:"sku"`
	ParentSKU  string `json:"parentSku"`
	UPC        string `json:"upc"`

	Packaging   string `json:"packaging"`
	Formula     string `json:"formula"`
	Ingredients string `json:"ingredients"`

	ImageFront      string `json:"imageFront"`
	ImageBack       string `json:"imageBack"`
	ImageLeft       string `json:"imageLeft"`
	ImageRight      string `json:"imageRight"`
	ImageTop        string `json:"imageTop"`
	ImageBottom     string `json:"imageBottom"`
	MarketingImages string `json:"marketingImages"`

	Title       string `json:"title"`
	Bullets     string `json:"bullets"`
	Description string `json:"description"`
	LabelCopy   string `json:"labelCopy"`

	Dimensions string `json:"dimensions"`
	Weight     string `json:"weight"`

	Price string `json:"price"`
	Cost  string `json:"cost"`
	MSRP  string `json:"msrp"`

	Status string `json:"status"`

	Rating       string `json:"rating"`
	ReviewCount  string `json:"reviewCount"`
	VineEnrolled string `json:"vineEnrolled"`
	VineReviews  string `json:"vineReviews"`

	Competitors string `json:"competitors"`
	Keywords    string `json:"keywords"`

	Notes     string `json:"notes"`
	DateAdded string `json:"dateAdded"`
}

// ProductPatch is a partial update. Nil fields are left untouched; a non-nil
// Attributes map is merged key by key.
type ProductPatch struct {
	Product        *string                `json:"product,omitempty"`
	Brand          *string                `json:"brand,omitempty"`
	Account        *string                `json:"account,omitempty"`
	Status         *string                `json:"status,omitempty"`
	Module         *string                `json:"module,omitempty"`
	ASIN           *string                `json:"asin,omitempty"`
	SKU            *string                `json:"sku,omitempty"`
	Attributes     map[string]string      `json:"attributes,omitempty"`
	Variations     []string               `json:"variations,omitempty"`
	VariationsData map[string]VariantData `json:"variationsData,omitempty"`
}

// apply merges the patch into p.
func (patch ProductPatch) apply(p *Product) {
	setIf := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setIf(&p.Product, patch.Product)
	setIf(&p.Brand, patch.Brand)
	setIf(&p.Account, patch.Account)
	setIf(&p.Status, patch.Status)
	setIf(&p.Module, patch.Module)
	setIf(&p.ASIN, patch.ASIN)
	setIf(&p.SKU, patch.SKU)

	if len(patch.Attributes) > 0 {
		if p.Attributes == nil {
			p.Attributes = make(map[string]string, len(patch.Attributes))
		}
		for k, v := range patch.Attributes {
			p.Attributes[k] = v
		}
	}
	if patch.Variations != nil {
		p.Variations = append([]string(nil), patch.Variations...)
	}
	if patch.VariationsData != nil {
		p.VariationsData = make(map[string]VariantData, len(patch.VariationsData))
		for k, v := range patch.VariationsData {
			p.VariationsData[k] = v
		}
	}
}

// Format identifies which importer handles a CSV payload.
type Format string

const (
	FormatSimple  Format = "simple"
	FormatCatalog Format = "catalog"
)

// ImportResult is returned by every import. Failures are reported here
// rather than as a Go error so callers can show the reason directly.
type ImportResult struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Format   Format    `json:"format,omitempty"`
	Products []Product `json:"products,omitempty"`
	Configs  int       `json:"configsCreated,omitempty"`
}
