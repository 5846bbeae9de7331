package core

import (
	"context"
	"slices"
	"sort"
)

// Config returns the overlay for id, or a default one when none is stored.
// Reading never creates an overlay.
func (s *Store) Config(id string) ProductConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cfg, ok := s.configs[id]; ok {
		return cfg.clone()
	}
	return DefaultConfig()
}

// HasConfig reports whether an overlay is stored for id.
func (s *Store) HasConfig(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.configs[id]
	return ok
}

// UpdateConfig applies fn to the overlay for id, creating it from the
// default on first write, and persists the result.
func (s *Store) UpdateConfig(ctx context.Context, id string, fn func(*ProductConfig)) (ProductConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.configs[id]
	if !ok {
		cfg = DefaultConfig()
	} else {
		cfg = cfg.clone()
	}
	fn(&cfg)
	s.configs[id] = cfg

	if err := s.persistLocked(ctx); err != nil {
		return cfg.clone(), err
	}
	return cfg.clone(), nil
}

// SetVariations replaces the exposed variation labels and their type.
func (s *Store) SetVariations(ctx context.Context, id string, labels []string, vt VariationType) (ProductConfig, error) {
	if vt != "" && !slices.Contains(VariationTypes, vt) {
		return ProductConfig{}, newValidationError("invalid variation type %q", vt)
	}
	return s.UpdateConfig(ctx, id, func(c *ProductConfig) {
		c.Variations = dedupe(labels)
		if vt != "" {
			c.VariationType = vt
		}
	})
}

// SetEnabledTabs sets the visible tabs. An empty list means every tab.
func (s *Store) SetEnabledTabs(ctx context.Context, id string, tabs []string) (ProductConfig, error) {
	return s.UpdateConfig(ctx, id, func(c *ProductConfig) {
		c.EnabledTabs = dedupe(tabs)
	})
}

// SetActiveTemplate records which template the product follows. An empty
// id clears the reference.
func (s *Store) SetActiveTemplate(ctx context.Context, id, templateID string) (ProductConfig, error) {
	return s.UpdateConfig(ctx, id, func(c *ProductConfig) {
		c.ActiveTemplateID = templateID
	})
}

// ApplyTemplate copies the template's variations and type onto the overlay.
// Tabs are only copied when the template lists some.
func (s *Store) ApplyTemplate(ctx context.Context, id string, t Template) (ProductConfig, error) {
	if t.VariationType != "" && !slices.Contains(VariationTypes, t.VariationType) {
		return ProductConfig{}, newValidationError("invalid variation type %q", t.VariationType)
	}
	return s.UpdateConfig(ctx, id, func(c *ProductConfig) {
		c.applyTemplate(t)
	})
}

// SetCustomField stores a per-field override on the overlay.
func (s *Store) SetCustomField(ctx context.Context, id, key, value string) (ProductConfig, error) {
	if key == "" {
		return ProductConfig{}, newValidationError("custom field key is required")
	}
	return s.UpdateConfig(ctx, id, func(c *ProductConfig) {
		if c.CustomFields == nil {
			c.CustomFields = make(map[string]string)
		}
		c.CustomFields[key] = value
	})
}

// OrphanConfigs lists overlay ids with no matching product, sorted.
func (s *Store) OrphanConfigs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	live := make(map[string]bool, len(s.products))
	for _, p := range s.products {
		live[p.ID] = true
	}

	var orphans []string
	for id := range s.configs {
		if !live[id] {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)
	return orphans
}

// dedupe drops empty and repeated labels, keeping first-seen order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
