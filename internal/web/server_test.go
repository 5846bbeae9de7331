package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/catalog/internal/config"
	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/storage"
)

const catalogFile = "Catalog Export,,,\n" +
	"Date Added,Brand Name,Product Title,Size,ASIN,Parent ASIN,SKU,Parent SKU,Account,Product Type,Formula,Product Images,Label Copy,Price\n" +
	`2024-01-01,Acme,"Widget, 8oz",8oz,B1,,S1,,Main,,,,,9.99` + "\n" +
	`2024-01-01,Acme,"Widget, 16oz",16oz,B2,,S2,,Main,,,,,14.99`

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20, MaxWaitTime: time.Second},
	}
}

// fakeRemote records writes and assigns sequential ids.
type fakeRemote struct {
	products []core.Product
	updated  []string
	deleted  []string
	err      error
}

func (f *fakeRemote) List(context.Context) ([]core.Product, error) {
	return f.products, f.err
}

func (f *fakeRemote) Create(_ context.Context, p core.Product) (core.Product, error) {
	if f.err != nil {
		return core.Product{}, f.err
	}
	p.ID = fmt.Sprintf("r%d", len(f.products)+1)
	f.products = append(f.products, p)
	return p, nil
}

func (f *fakeRemote) Update(_ context.Context, id string, _ core.ProductPatch) (core.Product, error) {
	f.updated = append(f.updated, id)
	return core.Product{ID: id}, f.err
}

func (f *fakeRemote) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func newTestServer(t *testing.T, remote Remote) (*Server, *core.Store) {
	t.Helper()
	store, err := core.NewStore(context.Background(), storage.NewMemoryBackend())
	require.NoError(t, err)
	return NewServer(store, core.NewImportLimiter(1, time.Second), remote, testConfig()), store
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// ============================================================================
// Products
// ============================================================================

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["remote"])
}

func TestProductLifecycle(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/products", map[string]any{
		"product": "Widget", "brand": "Acme", "module": "development",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Product](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, core.StatusPending, created.Status)

	rec = do(t, s, http.MethodGet, "/api/products?module=development", nil)
	assert.Len(t, decode[[]core.Product](t, rec), 1)
	rec = do(t, s, http.MethodGet, "/api/products?module=catalog", nil)
	assert.Empty(t, decode[[]core.Product](t, rec))

	rec = do(t, s, http.MethodPatch, "/api/products/"+created.ID, map[string]any{"brand": "Globex"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Globex", decode[core.Product](t, rec).Brand)

	rec = do(t, s, http.MethodPut, "/api/products/"+created.ID+"/fields/color", map[string]string{"value": "red"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "red", decode[core.Product](t, rec).Attributes["color"])

	rec = do(t, s, http.MethodDelete, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NF001", decode[ErrorResponse](t, rec).Code)
}

func TestCreateProduct_InvalidJSON(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/products", "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", decode[ErrorResponse](t, rec).Code)
}

func TestUpdateProduct_Validation(t *testing.T) {
	s, store := newTestServer(t, nil)
	p, err := store.Add(context.Background(), core.Product{Product: "Widget"})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPatch, "/api/products/"+p.ID, map[string]any{"module": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/products/"+p.ID+"/fields/id", map[string]string{"value": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/products/missing", map[string]any{"brand": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBatchCreateAndDelete(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/products/batch", []map[string]string{
		{"product": "A"}, {"product": "B"}, {"product": "C"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[[]core.Product](t, rec)
	require.Len(t, created, 3)

	rec = do(t, s, http.MethodPost, "/api/products/delete", map[string]any{
		"ids": []string{created[0].ID, created[2].ID, "unknown"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[map[string]int](t, rec)["deleted"])
	assert.Equal(t, 1, store.Count())
}

// ============================================================================
// Import / Export
// ============================================================================

func TestImport_CatalogRawBody(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/import", catalogFile)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[core.ImportResult](t, rec)
	assert.True(t, res.Success)
	assert.Equal(t, core.FormatCatalog, res.Format)
	assert.Equal(t, 1, res.Configs)
	require.Len(t, res.Products, 1)
	assert.Equal(t, []string{"8oz", "16oz"}, res.Products[0].Variations)

	rec = do(t, s, http.MethodGet, "/api/products/"+res.Products[0].ID+"/config", nil)
	cfg := decode[ConfigResponse](t, rec)
	assert.True(t, cfg.Stored)
	assert.Equal(t, []string{"8oz", "16oz"}, cfg.Config.Variations)
	assert.True(t, cfg.Tabs.All)
	assert.Equal(t, 1, store.Count())
}

func TestImport_Multipart(t *testing.T) {
	s, store := newTestServer(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	fw.Write([]byte("product,brand\nWidget,Acme\nGadget,Globex"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[core.ImportResult](t, rec)
	assert.Equal(t, core.FormatSimple, res.Format)
	assert.Len(t, res.Products, 2)
	assert.Equal(t, 2, store.Count())
}

func TestImport_Failures(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty body", "  ", http.StatusBadRequest},
		{"header only", "product,brand", http.StatusUnprocessableEntity},
		{"catalog without header", "Product Images,Brand Name,Label Copy\nno,header,here", http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, store := newTestServer(t, nil)
			rec := do(t, s, http.MethodPost, "/api/import", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Zero(t, store.Count())
		})
	}
}

func TestImport_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, nil)
	s.cfg.Import.MaxFileSize = 16

	rec := do(t, s, http.MethodPost, "/api/import", "product\n"+strings.Repeat("x", 64))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "IMP003", decode[ErrorResponse](t, rec).Code)
}

func TestPreview_DoesNotStore(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/api/import/preview", catalogFile)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[core.ImportResult](t, rec)
	assert.Len(t, res.Products, 1)
	assert.Zero(t, store.Count())
}

func TestExport(t *testing.T) {
	s, store := newTestServer(t, nil)
	_, err := store.AddMany(context.Background(), []core.Product{
		{Product: "Widget", Brand: "Acme", Module: core.ModuleCatalog},
		{Product: "Gadget", Brand: "Globex", Module: core.ModuleSelection},
	})
	require.NoError(t, err)

	rec := do(t, s, http.MethodGet, "/api/export?module=catalog", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products-catalog.csv")
	assert.Contains(t, rec.Body.String(), "Widget")
	assert.NotContains(t, rec.Body.String(), "Gadget")

	rec = do(t, s, http.MethodGet, "/api/export?format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	text, err := core.XLSXToCSV(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Contains(t, text, "Gadget")

	rec = do(t, s, http.MethodGet, "/api/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// ============================================================================
// Config overlays
// ============================================================================

func TestConfigRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil)
	base := "/api/products/p-1/config"

	rec := do(t, s, http.MethodGet, base, nil)
	cfg := decode[ConfigResponse](t, rec)
	assert.False(t, cfg.Stored)
	assert.Equal(t, core.VariationSize, cfg.Config.VariationType)

	rec = do(t, s, http.MethodPut, base+"/tabs", map[string]any{"tabs": []string{"dashboard"}})
	cfg = decode[ConfigResponse](t, rec)
	assert.True(t, cfg.Stored)
	assert.False(t, cfg.Tabs.All)
	assert.Equal(t, []string{"dashboard"}, cfg.Tabs.Tabs)

	rec = do(t, s, http.MethodPut, base+"/variations", map[string]any{
		"variations": []string{"red", "blue", "red"}, "variationType": "color",
	})
	cfg = decode[ConfigResponse](t, rec)
	assert.Equal(t, []string{"red", "blue"}, cfg.Config.Variations)
	assert.Equal(t, core.VariationColor, cfg.Config.VariationType)

	rec = do(t, s, http.MethodPut, base+"/variations", map[string]any{"variationType": "shape"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, base+"/apply-template", core.Template{
		ID: "t1", VariationType: core.VariationScent, DefaultVariations: []string{"lavender"},
	})
	cfg = decode[ConfigResponse](t, rec)
	assert.Equal(t, "t1", cfg.Config.ActiveTemplateID)
	assert.Equal(t, []string{"lavender"}, cfg.Config.Variations)
	assert.Equal(t, []string{"dashboard"}, cfg.Config.EnabledTabs)

	rec = do(t, s, http.MethodPut, base+"/custom/badge", map[string]string{"value": "new"})
	cfg = decode[ConfigResponse](t, rec)
	assert.Equal(t, "new", cfg.Config.CustomFields["badge"])

	rec = do(t, s, http.MethodPut, base+"/template", map[string]string{"templateId": ""})
	cfg = decode[ConfigResponse](t, rec)
	assert.Empty(t, cfg.Config.ActiveTemplateID)

	rec = do(t, s, http.MethodGet, "/api/configs/orphans", nil)
	assert.Equal(t, []string{"p-1"}, decode[map[string][]string](t, rec)["orphans"])
}

func TestReplaceConfig(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, http.MethodPut, "/api/products/p-1/config", map[string]any{
		"variations": []string{"S", "M"}, "variationType": "Size",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cfg := decode[ConfigResponse](t, rec)
	assert.Equal(t, []string{"S", "M"}, cfg.Config.Variations)
	assert.Equal(t, []string{}, cfg.Config.EnabledTabs)
	assert.True(t, cfg.Tabs.All)
}

// ============================================================================
// Remote
// ============================================================================

func TestSyncPull_NoRemote(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/sync/pull", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "REM002", decode[ErrorResponse](t, rec).Code)
}

func TestRemoteWritesFirst(t *testing.T) {
	remote := &fakeRemote{}
	s, store := newTestServer(t, remote)

	rec := do(t, s, http.MethodPost, "/api/products", map[string]string{"product": "Widget"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "r1", decode[core.Product](t, rec).ID)

	rec = do(t, s, http.MethodDelete, "/api/products/r1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"r1"}, remote.deleted)
	assert.Zero(t, store.Count())
}

func TestRemoteFailureLeavesStore(t *testing.T) {
	remote := &fakeRemote{err: core.ErrRemote}
	s, store := newTestServer(t, remote)

	rec := do(t, s, http.MethodPost, "/api/products", map[string]string{"product": "Widget"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, store.Count())
}

func TestSyncPull(t *testing.T) {
	remote := &fakeRemote{products: []core.Product{
		{ID: "r1", Product: "Widget", Module: core.ModuleCatalog},
		{ID: "r2", Product: "Gadget", Module: core.ModuleSelection},
	}}
	s, store := newTestServer(t, remote)
	_, err := store.Add(context.Background(), core.Product{Product: "Local only"})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/api/sync/pull", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[map[string]int](t, rec)["products"])

	_, ok := store.ByID("r2")
	assert.True(t, ok)
	assert.Equal(t, 2, store.Count())
}

func TestImportWithRemoteSurvivesSyncPull(t *testing.T) {
	remote := &fakeRemote{}
	s, store := newTestServer(t, remote)

	rec := do(t, s, http.MethodPost, "/api/import", catalogFile)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[core.ImportResult](t, rec)
	require.Len(t, res.Products, 1)
	assert.Equal(t, "r1", res.Products[0].ID)
	require.Len(t, remote.products, 1)
	assert.Equal(t, []string{"8oz", "16oz"}, remote.products[0].Variations)

	rec = do(t, s, http.MethodPost, "/api/sync/pull", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, store.Count())
	assert.True(t, store.HasConfig("r1"))
	assert.Empty(t, store.OrphanConfigs())
}

func TestImportWithRemoteFailureStoresNothing(t *testing.T) {
	remote := &fakeRemote{err: core.ErrRemote}
	s, store := newTestServer(t, remote)

	rec := do(t, s, http.MethodPost, "/api/import", catalogFile)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Zero(t, store.Count())
	assert.Empty(t, store.OrphanConfigs())
}

func TestSetFieldMirrorsRemote(t *testing.T) {
	remote := &fakeRemote{}
	s, store := newTestServer(t, remote)

	rec := do(t, s, http.MethodPost, "/api/products", map[string]string{"product": "Widget"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/products/r1/fields/brand", map[string]string{"value": "Acme"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"r1"}, remote.updated)

	p, _ := store.ByID("r1")
	assert.Equal(t, "Acme", p.Brand)
}

func TestUpdateProduct_VariationsNeedData(t *testing.T) {
	remote := &fakeRemote{}
	s, store := newTestServer(t, remote)

	rec := do(t, s, http.MethodPost, "/api/products", map[string]string{"product": "Widget"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPatch, "/api/products/r1", map[string]any{"variations": []string{"99oz"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", decode[ErrorResponse](t, rec).Code)
	assert.Empty(t, remote.updated)

	p, _ := store.ByID("r1")
	assert.Empty(t, p.Variations)
}
