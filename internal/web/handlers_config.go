package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalog/internal/core"
)

// ConfigResponse is an overlay plus its derived tab visibility.
type ConfigResponse struct {
	ProductID string             `json:"productId"`
	Stored    bool               `json:"stored"`
	Config    core.ProductConfig `json:"config"`
	Tabs      core.TabVisibility `json:"tabs"`
}

func (s *Server) writeConfig(w http.ResponseWriter, id string, cfg core.ProductConfig) {
	writeJSON(w, http.StatusOK, ConfigResponse{
		ProductID: id,
		Stored:    s.store.HasConfig(id),
		Config:    cfg,
		Tabs:      cfg.TabVisibility(),
	})
}

// handleGetConfig returns the overlay, or the default when none is stored.
// Overlays are keyed by id alone, so orphans stay readable.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeConfig(w, id, s.store.Config(id))
}

// handleReplaceConfig overwrites the stored overlay with the body.
func (s *Server) handleReplaceConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body core.ProductConfig
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if body.VariationType == "" {
		body.VariationType = core.VariationSize
	}
	vt, err := core.ParseVariationType(string(body.VariationType))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	body.VariationType = vt

	cfg, err := s.store.UpdateConfig(r.Context(), id, func(c *core.ProductConfig) {
		*c = body
		if c.Variations == nil {
			c.Variations = []string{}
		}
		if c.EnabledTabs == nil {
			c.EnabledTabs = []string{}
		}
	})
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.writeConfig(w, id, cfg)
}

// handleSetTabs sets {"tabs": [...]}. An empty list shows every tab.
func (s *Server) handleSetTabs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Tabs []string `json:"tabs"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	cfg, err := s.store.SetEnabledTabs(r.Context(), id, body.Tabs)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.writeConfig(w, id, cfg)
}

// handleSetVariations sets {"variations": [...], "variationType": "..."}.
func (s *Server) handleSetVariations(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Variations    []string `json:"variations"`
		VariationType string   `json:"variationType"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	var vt core.VariationType
	if body.VariationType != "" {
		parsed, err := core.ParseVariationType(body.VariationType)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}
		vt = parsed
	}

	cfg, err := s.store.SetVariations(r.Context(), id, body.Variations, vt)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.writeConfig(w, id, cfg)
}

// handleSetActiveTemplate sets {"templateId": "..."}; empty clears it.
func (s *Server) handleSetActiveTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		TemplateID string `json:"templateId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	cfg, err := s.store.SetActiveTemplate(r.Context(), id, body.TemplateID)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.writeConfig(w, id, cfg)
}

// handleApplyTemplate applies the template in the body to the overlay.
func (s *Server) handleApplyTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var t core.Template
	if err := decodeJSON(w, r, &t); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	cfg, err := s.store.ApplyTemplate(r.Context(), id, t)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.writeConfig(w, id, cfg)
}

// handleSetCustomField stores {"value": "..."} under the key.
func (s *Server) handleSetCustomField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key := chi.URLParam(r, "key")

	var body struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	cfg, err := s.store.SetCustomField(r.Context(), id, key, body.Value)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	s.writeConfig(w, id, cfg)
}

func (s *Server) handleOrphanConfigs(w http.ResponseWriter, r *http.Request) {
	orphans := s.store.OrphanConfigs()
	if orphans == nil {
		orphans = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"orphans": orphans})
}
