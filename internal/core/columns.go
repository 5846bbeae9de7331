package core

import "strings"

// Catalog sheet headers. The marker headers are what the detector and the
// header locator look for.
const (
	ColProductImages = "Product Images"
	ColBrandName     = "Brand Name"
	ColLabelCopy     = "Label Copy"
	ColDateAdded     = "Date Added"

	ColProductTitle = "Product Title"
	ColSize         = "Size"
	ColASIN         = "ASIN"
	ColParentASIN   = "Parent ASIN"
	ColSKU          = "SKU"
	ColParentSKU    = "Parent SKU"
	ColUPC          = "UPC"

	ColProductType = "Product Type"
	ColAccount     = "Account"
	ColMarketplace = "Marketplace"
	ColCountry     = "Country"
	ColStatus      = "Status"
	ColModule      = "Module"
	ColSource      = "Source"

	ColPackaging   = "Packaging"
	ColFormula     = "Formula"
	ColIngredients = "Ingredients"

	ColImageFront  = "Front Image"
	ColImageBack   = "Back Image"
	ColImageLeft   = "Left Image"
	ColImageRight  = "Right Image"
	ColImageTop    = "Top Image"
	ColImageBottom = "Bottom Image"

	ColBullets     = "Bullet Points"
	ColDescription = "Description"
	ColDimensions  = "Dimensions"
	ColWeight      = "Weight"
	ColPrice       = "Price"
	ColCost        = "Cost"
	ColMSRP        = "MSRP"
	ColRating      = "Rating"
	ColReviewCount = "Review Count"
	ColVine        = "Vine Enrolled"
	ColVineReviews = "Vine Reviews"
	ColCompetitors = "Competitors"
	ColKeywords    = "Keywords"
	ColNotes       = "Notes"
)

// MaxHeaderSearchRows is how many leading lines are scanned for the catalog header.
const MaxHeaderSearchRows = 20

// detectMarkers must all appear somewhere in a catalog export.
var detectMarkers = []string{ColProductImages, ColBrandName, ColLabelCopy}

// headerMarkers must all appear on the catalog header line itself.
var headerMarkers = []string{ColProductImages, ColDateAdded, ColBrandName}

// containsAll reports whether s contains every marker.
func containsAll(s string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(s, m) {
			return false
		}
	}
	return true
}

// row is one decoded catalog line keyed by header name. Empty cells and
// cells past the header are absent.
type row map[string]string

// zipRow aligns fields against the header.
func zipRow(header, fields []string) row {
	r := make(row, len(header))
	for i, name := range header {
		if i >= len(fields) {
			break
		}
		if name == "" || fields[i] == "" {
			continue
		}
		r[name] = fields[i]
	}
	return r
}

// get returns the cell for the named column, or "".
func (r row) get(col string) string {
	return r[col]
}

// variantData builds the per-variant bundle for this row.
func (r row) variantData() VariantData {
	return VariantData{
		Size:       r.get(ColSize),
		ASIN:       r.get(ColASIN),
		ParentASIN: r.get(ColParentASIN),
		SKU:        r.get(ColSKU),
		ParentSKU:  r.get(ColParentSKU),
		UPC:        r.get(ColUPC),

		Packaging:   r.get(ColPackaging),
		Formula:     r.get(ColFormula),
		Ingredients: r.get(ColIngredients),

		ImageFront:      r.get(ColImageFront),
		ImageBack:       r.get(ColImageBack),
		ImageLeft:       r.get(ColImageLeft),
		ImageRight:      r.get(ColImageRight),
		ImageTop:        r.get(ColImageTop),
		ImageBottom:     r.get(ColImageBottom),
		MarketingImages: r.get(ColProductImages),

		Title:       r.get(ColProductTitle),
		Bullets:     r.get(ColBullets),
		Description: r.get(ColDescription),
		LabelCopy:   r.get(ColLabelCopy),

		Dimensions: r.get(ColDimensions),
		Weight:     r.get(ColWeight),

		Price: r.get(ColPrice),
		Cost:  r.get(ColCost),
		MSRP:  r.get(ColMSRP),

		Status: r.get(ColStatus),

		Rating:       r.get(ColRating),
		ReviewCount:  r.get(ColReviewCount),
		VineEnrolled: r.get(ColVine),
		VineReviews:  r.get(ColVineReviews),

		Competitors: r.get(ColCompetitors),
		Keywords:    r.get(ColKeywords),

		Notes:     r.get(ColNotes),
		DateAdded: r.get(ColDateAdded),
	}
}

// sharedAttributes maps attribute keys to the column copied from the first
// row of a group. Later rows never overwrite these.
var sharedAttributes = []struct {
	key string
	col string
}{
	{"type", ColProductType},
	{"marketplace", ColMarketplace},
	{"country", ColCountry},
	{"formula", ColFormula},
	{"ingredients", ColIngredients},
	{"packaging", ColPackaging},
	{"labelCopy", ColLabelCopy},
	{"marketingImages", ColProductImages},
	{"bullets", ColBullets},
	{"description", ColDescription},
	{"keywords", ColKeywords},
	{"competitors", ColCompetitors},
	{"notes", ColNotes},
	{"dateAdded", ColDateAdded},
}
