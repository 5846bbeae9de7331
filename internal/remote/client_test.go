package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/storage"
)

func TestClient_CRUD(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		gotBody = nil
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&gotBody)
		}

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]core.Product{{ID: "r1", Product: "Widget", Module: "catalog"}})
		case http.MethodPost, http.MethodPut:
			json.NewEncoder(w).Encode(core.Product{ID: "r2", Product: "Gadget", Module: "selection"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "products", time.Second)
	ctx := context.Background()

	list, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "r1", list[0].ID)
	assert.Equal(t, "/products", gotPath)

	created, err := c.Create(ctx, core.Product{Product: "Gadget"})
	require.NoError(t, err)
	assert.Equal(t, "r2", created.ID)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "Gadget", gotBody["product"])

	name := "Renamed"
	_, err = c.Update(ctx, "r2", core.ProductPatch{Product: &name})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/products/r2", gotPath)
	assert.Equal(t, "Renamed", gotBody["product"])

	require.NoError(t, c.Delete(ctx, "r2"))
	assert.Equal(t, http.MethodDelete, gotMethod)
}

func TestClient_ErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error field", http.StatusBadRequest, `{"error":"name is required"}`, "name is required"},
		{"json message field", http.StatusConflict, `{"message":"already exists"}`, "already exists"},
		{"plain text body", http.StatusInternalServerError, "  boom  ", "boom"},
		{"empty body", http.StatusBadGateway, "", "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second).List(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrRemote))

			var remoteErr *Error
			require.True(t, errors.As(err, &remoteErr))
			assert.Equal(t, tt.status, remoteErr.StatusCode)
			assert.Equal(t, tt.wantMsg, remoteErr.Message)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewClient(url, "products", time.Second).Delete(context.Background(), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrRemote))

	var remoteErr *Error
	require.True(t, errors.As(err, &remoteErr))
	assert.Equal(t, 0, remoteErr.StatusCode)
	assert.Equal(t, "delete", remoteErr.Op)
}

func TestClient_ReloadsStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]core.Product{{ID: "r1", Product: "Widget", Module: "catalog"}})
	}))
	defer srv.Close()

	store, err := core.NewStore(context.Background(), storage.NewMemoryBackend())
	require.NoError(t, err)

	n, err := store.Reload(context.Background(), NewClient(srv.URL, "products", time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, ok := store.ByID("r1")
	assert.True(t, ok)
}
