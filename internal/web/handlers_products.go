package web

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
)

// maxJSONBody bounds JSON request bodies outside of imports.
const maxJSONBody = 1 << 20

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Mark(errors.Wrap(err, "invalid JSON body"), core.ErrValidation)
	}
	return nil
}

// handleListProducts returns all products, or one module's with ?module=.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")

	var products []core.Product
	if module == "" {
		products = s.store.All()
	} else {
		products = s.store.ByModule(module)
	}
	if products == nil {
		products = []core.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.store.ByID(id)
	if !ok {
		s.respondError(w, r, core.NotFound(id), 0)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleCreateProduct stores one product. With a remote configured the
// remote assigns the id and the local store caches its response.
func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p core.Product
	if err := decodeJSON(w, r, &p); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if s.remote != nil {
		remoteP, err := s.remote.Create(r.Context(), p)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}
		p = remoteP
	}

	created, err := s.store.Add(r.Context(), p)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleCreateProducts stores a JSON array of products in one mutation.
func (s *Server) handleCreateProducts(w http.ResponseWriter, r *http.Request) {
	var products []core.Product
	if err := decodeJSON(w, r, &products); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if s.remote != nil {
		for i, p := range products {
			remoteP, err := s.remote.Create(r.Context(), p)
			if err != nil {
				s.respondError(w, r, err, 0)
				return
			}
			products[i] = remoteP
		}
	}

	created, err := s.store.AddMany(r.Context(), products)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch core.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if _, ok := s.store.ByID(id); !ok {
		s.respondError(w, r, core.NotFound(id), 0)
		return
	}

	if err := s.store.CheckUpdate(id, patch); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if s.remote != nil {
		if _, err := s.remote.Update(r.Context(), id, patch); err != nil {
			s.respondError(w, r, err, 0)
			return
		}
	}

	if err := s.store.Update(r.Context(), id, patch); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	p, _ := s.store.ByID(id)
	writeJSON(w, http.StatusOK, p)
}

// handleSetField sets one field by export key from a {"value": ...} body.
func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key := chi.URLParam(r, "key")

	var body struct {
		Value string `json:"value"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if _, ok := s.store.ByID(id); !ok {
		s.respondError(w, r, core.NotFound(id), 0)
		return
	}

	patch, err := core.FieldPatch(key, body.Value)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if err := s.store.CheckUpdate(id, patch); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if s.remote != nil {
		if _, err := s.remote.Update(r.Context(), id, patch); err != nil {
			s.respondError(w, r, err, 0)
			return
		}
	}

	if err := s.store.Update(r.Context(), id, patch); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	p, _ := s.store.ByID(id)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if s.remote != nil {
		if err := s.remote.Delete(r.Context(), id); err != nil {
			s.respondError(w, r, err, 0)
			return
		}
	}

	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteProducts removes every id in {"ids": [...]}.
func (s *Server) handleDeleteProducts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if s.remote != nil {
		for _, id := range body.IDs {
			if err := s.remote.Delete(r.Context(), id); err != nil {
				s.respondError(w, r, err, 0)
				return
			}
		}
	}

	before := s.store.Count()
	if err := s.store.DeleteMany(r.Context(), body.IDs); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	deleted := before - s.store.Count()
	logging.FromContext(r.Context()).Info("products deleted", "requested", len(body.IDs), "deleted", deleted)
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// handleSyncPull replaces the local collection with the remote's records.
func (s *Server) handleSyncPull(w http.ResponseWriter, r *http.Request) {
	if s.remote == nil {
		s.respondError(w, r, errRemoteDisabled, 0)
		return
	}

	n, err := s.store.Reload(r.Context(), s.remote)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logging.FromContext(r.Context()).Info("remote sync completed", "products", n)
	writeJSON(w, http.StatusOK, map[string]int{"products": n})
}
