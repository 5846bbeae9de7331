package core

import (
	"slices"
	"strings"
)

// VariationType classifies what a product's variations represent.
type VariationType string

const (
	VariationSize     VariationType = "size"
	VariationColor    VariationType = "color"
	VariationStyle    VariationType = "style"
	VariationFlavor   VariationType = "flavor"
	VariationScent    VariationType = "scent"
	VariationMaterial VariationType = "material"
	VariationCustom   VariationType = "custom"
)

// VariationTypes lists every accepted variation type.
var VariationTypes = []VariationType{
	VariationSize, VariationColor, VariationStyle, VariationFlavor,
	VariationScent, VariationMaterial, VariationCustom,
}

// ParseVariationType validates s against the closed set of variation types.
func ParseVariationType(s string) (VariationType, error) {
	vt := VariationType(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(VariationTypes, vt) {
		return "", newValidationError("invalid variation type %q", s)
	}
	return vt, nil
}

// ProductConfig is the per-product overlay kept alongside the product record.
// It has its own lifecycle and may outlive the product it refers to.
type ProductConfig struct {
	Variations     []string               `json:"variations"`
	VariationType  VariationType          `json:"variationType"`
	VariationsData map[string]VariantData `json:"variationsData,omitempty"`

	// EnabledTabs is empty when every tab is shown.
	EnabledTabs []string `json:"enabledTabs"`

	ActiveTemplateID string            `json:"activeTemplateId,omitempty"`
	CustomFields     map[string]string `json:"customFields,omitempty"`
}

// DefaultConfig is returned for products with no stored overlay.
func DefaultConfig() ProductConfig {
	return ProductConfig{
		Variations:    []string{},
		VariationType: VariationSize,
		EnabledTabs:   []string{},
	}
}

// TabVisibility describes which tabs a product shows.
type TabVisibility struct {
	All  bool     `json:"all"`
	Tabs []string `json:"tabs,omitempty"`
}

// TabVisibility reports "all tabs" for an empty tab list.
func (c ProductConfig) TabVisibility() TabVisibility {
	if len(c.EnabledTabs) == 0 {
		return TabVisibility{All: true}
	}
	return TabVisibility{Tabs: slices.Clone(c.EnabledTabs)}
}

// ShowsAllTabs reports whether no tab restriction is configured.
func (c ProductConfig) ShowsAllTabs() bool {
	return len(c.EnabledTabs) == 0
}

// IsTabVisible reports whether tab is shown for this product.
func (c ProductConfig) IsTabVisible(tab string) bool {
	return c.ShowsAllTabs() || slices.Contains(c.EnabledTabs, tab)
}

// Template is a reusable variation/tab preset.
type Template struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	VariationType     VariationType `json:"variationType"`
	DefaultVariations []string      `json:"defaultVariations"`
	EnabledTabs       []string      `json:"enabledTabs"`
}

// applyTemplate copies the template's variations onto c. An empty template
// tab list leaves the existing tabs alone.
func (c *ProductConfig) applyTemplate(t Template) {
	c.Variations = slices.Clone(t.DefaultVariations)
	if c.Variations == nil {
		c.Variations = []string{}
	}
	if t.VariationType != "" {
		c.VariationType = t.VariationType
	}
	if len(t.EnabledTabs) > 0 {
		c.EnabledTabs = slices.Clone(t.EnabledTabs)
	}
	c.ActiveTemplateID = t.ID
}

func (c ProductConfig) clone() ProductConfig {
	out := c
	out.Variations = slices.Clone(c.Variations)
	out.EnabledTabs = slices.Clone(c.EnabledTabs)
	if c.VariationsData != nil {
		out.VariationsData = make(map[string]VariantData, len(c.VariationsData))
		for k, v := range c.VariationsData {
			out.VariationsData[k] = v
		}
	}
	if c.CustomFields != nil {
		out.CustomFields = make(map[string]string, len(c.CustomFields))
		for k, v := range c.CustomFields {
			out.CustomFields[k] = v
		}
	}
	return out
}

// configFromProduct builds the overlay created when a grouped product is imported.
func configFromProduct(p Product) ProductConfig {
	cfg := DefaultConfig()
	cfg.Variations = slices.Clone(p.Variations)
	cfg.VariationType = VariationSize
	if p.VariationsData != nil {
		cfg.VariationsData = make(map[string]VariantData, len(p.VariationsData))
		for k, v := range p.VariationsData {
			cfg.VariationsData[k] = v
		}
	}
	return cfg
}
