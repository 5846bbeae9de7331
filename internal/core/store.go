package core

// store.go holds the product collection and the overlay map.
//
// Every mutation updates memory and then rewrites both collections to the
// backend before returning, so a completed call survives a crash. The store
// serializes writers with its own mutex; concurrent patches on one id are
// still last-applied-wins.

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/JonMunkholm/catalog/internal/storage"
)

// ProductSource is the system of record the store can be reconciled from.
type ProductSource interface {
	List(ctx context.Context) ([]Product, error)
}

// Store owns the products and their configuration overlays.
type Store struct {
	backend storage.Backend

	mu       sync.RWMutex
	products []Product
	configs  map[string]ProductConfig

	now   func() time.Time
	newID func() string
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the id source.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) { s.newID = fn }
}

// NewStore loads both collections from backend. Missing keys start empty.
func NewStore(ctx context.Context, backend storage.Backend, opts ...StoreOption) (*Store, error) {
	s := &Store{
		backend: backend,
		configs: make(map[string]ProductConfig),
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(ctx, storage.KeyProducts, &s.products); err != nil {
		return nil, err
	}
	if err := s.load(ctx, storage.KeyProductConfigs, &s.configs); err != nil {
		return nil, err
	}
	if s.configs == nil {
		s.configs = make(map[string]ProductConfig)
	}
	return s, nil
}

func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, err := s.backend.Load(ctx, key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "load %s", key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}

// persistLocked writes both collections. Caller holds s.mu.
func (s *Store) persistLocked(ctx context.Context) error {
	products := s.products
	if products == nil {
		products = []Product{}
	}
	if err := s.save(ctx, storage.KeyProducts, products); err != nil {
		return err
	}
	return s.save(ctx, storage.KeyProductConfigs, s.configs)
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return wrapPersist(err, key)
	}
	if err := s.backend.Save(ctx, key, raw); err != nil {
		slog.Error("persist failed", "key", key, "error", err)
		return wrapPersist(err, key)
	}
	return nil
}

// ============================================================================
// Reads
// ============================================================================

// All returns every product in insertion order.
func (s *Store) All() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.Map(s.products, func(p Product, _ int) Product { return p.clone() })
}

// Count returns the number of products.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

// ByModule returns the products owned by a pipeline stage.
func (s *Store) ByModule(module string) []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return lo.FilterMap(s.products, func(p Product, _ int) (Product, bool) {
		return p.clone(), p.Module == module
	})
}

// ByID returns the product with the given id.
func (s *Store) ByID(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexLocked(id); i >= 0 {
		return s.products[i].clone(), true
	}
	return Product{}, false
}

func (s *Store) indexLocked(id string) int {
	_, i, ok := lo.FindIndexOf(s.products, func(p Product) bool { return p.ID == id })
	if !ok {
		return -1
	}
	return i
}

// ============================================================================
// Mutations
// ============================================================================

// Add stores one product and returns it with id and timestamps set.
func (s *Store) Add(ctx context.Context, p Product) (Product, error) {
	created, err := s.AddMany(ctx, []Product{p})
	if err != nil {
		return Product{}, err
	}
	return created[0], nil
}

// AddMany stores products in order. Records without an id get a fresh one;
// records from the remote system of record keep theirs.
func (s *Store) AddMany(ctx context.Context, products []Product) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.addLocked(products)
	if err := s.persistLocked(ctx); err != nil {
		return created, err
	}
	return created, nil
}

func (s *Store) addLocked(products []Product) []Product {
	now := s.now()
	created := make([]Product, 0, len(products))
	for _, p := range products {
		p = p.clone()
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.Module == "" {
			p.Module = ModuleSelection
		}
		if p.Status == "" {
			p.Status = StatusPending
		}
		p.CreatedAt = now
		p.UpdatedAt = now
		s.products = append(s.products, p)
		created = append(created, p.clone())
	}
	return created
}

// Update merges patch into the product. Unknown ids are ignored.
func (s *Store) Update(ctx context.Context, id string, patch ProductPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	p, err := patched(s.products[i], patch)
	if err != nil {
		return err
	}
	p.UpdatedAt = s.now()
	s.products[i] = p
	return s.persistLocked(ctx)
}

// CheckUpdate reports whether Update would accept patch for id, without
// changing anything. Unknown ids pass.
func (s *Store) CheckUpdate(id string, patch ProductPatch) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil
	}
	_, err := patched(s.products[i], patch)
	return err
}

// patched returns a copy of p with patch applied, or a validation error.
func patched(p Product, patch ProductPatch) (Product, error) {
	if patch.Module != nil && *patch.Module == "" {
		return Product{}, newValidationError("module cannot be empty")
	}
	p = p.clone()
	patch.apply(&p)
	if patch.Variations == nil && patch.VariationsData == nil {
		return p, nil
	}
	if missing := missingVariantData(p); len(missing) > 0 {
		return Product{}, newValidationError("variations %v have no variationsData entry", missing)
	}
	return p, nil
}

// missingVariantData lists variation labels with no variationsData key.
func missingVariantData(p Product) []string {
	return lo.Reject(p.Variations, func(label string, _ int) bool {
		_, ok := p.VariationsData[label]
		return ok
	})
}

// SetField sets a single field by its export key. Keys that are not core
// fields go to the attribute map. Unknown ids are ignored.
func (s *Store) SetField(ctx context.Context, id, key, value string) error {
	patch, err := FieldPatch(key, value)
	if err != nil {
		return err
	}
	return s.Update(ctx, id, patch)
}

// FieldPatch builds the patch that sets one field by its export key.
func FieldPatch(key, value string) (ProductPatch, error) {
	var patch ProductPatch
	switch key {
	case "id", "createdAt", "updatedAt", "variations", "variationsData":
		return patch, newValidationError("field %q cannot be set directly", key)
	case "product":
		patch.Product = &value
	case "brand":
		patch.Brand = &value
	case "account":
		patch.Account = &value
	case "status":
		patch.Status = &value
	case "module":
		patch.Module = &value
	case "asin":
		patch.ASIN = &value
	case "sku":
		patch.SKU = &value
	default:
		patch.Attributes = map[string]string{key: value}
	}
	return patch, nil
}

// Delete removes one product. Its overlay is kept.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteMany(ctx, []string{id})
}

// DeleteMany removes every listed product. Unknown ids are ignored and
// overlays are kept.
func (s *Store) DeleteMany(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })
	kept := lo.Reject(s.products, func(p Product, _ int) bool {
		_, ok := drop[p.ID]
		return ok
	})
	if len(kept) == len(s.products) {
		return nil
	}
	s.products = kept
	return s.persistLocked(ctx)
}

// Reload replaces the product collection with the source's records.
// Overlays are left as they are.
func (s *Store) Reload(ctx context.Context, source ProductSource) (int, error) {
	products, err := source.List(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.products = lo.Map(products, func(p Product, _ int) Product {
		p = p.clone()
		if p.ID == "" {
			p.ID = s.newID()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
		return p
	})
	return len(s.products), s.persistLocked(ctx)
}

// ============================================================================
// Import / Export
// ============================================================================

// ImportCSV detects the format of text, imports it and stores the result.
// Grouped products get a size overlay. Failures are reported in the result.
func (s *Store) ImportCSV(ctx context.Context, text string) ImportResult {
	format, products, err := parseImport(text)
	if err != nil {
		slog.Debug("import rejected", "format", format, "error", err)
		return ImportResult{Format: format, Error: importMessage(err)}
	}
	return s.ImportProducts(ctx, format, products)
}

// ImportProducts stores products already parsed from a file of the given
// format. Grouped products get a size overlay.
func (s *Store) ImportProducts(ctx context.Context, format Format, products []Product) ImportResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.addLocked(products)

	configs := 0
	for _, p := range created {
		if p.HasVariations() {
			s.configs[p.ID] = configFromProduct(p)
			configs++
		}
	}

	if err := s.persistLocked(ctx); err != nil {
		return ImportResult{Format: format, Error: MapError(err).Message, Products: created}
	}

	slog.Debug("import stored", "format", format, "products", len(created), "configs", configs)
	return ImportResult{Success: true, Format: format, Products: created, Configs: configs}
}

// PreviewCSV runs the import pipeline without touching the store.
func (s *Store) PreviewCSV(text string) ImportResult {
	return PreviewCSV(text)
}

// ExportCSV renders every product, or one module's products, as CSV.
func (s *Store) ExportCSV(module string) string {
	if module == "" {
		return ExportCSV(s.All())
	}
	return ExportCSV(s.ByModule(module))
}

// parseImport normalizes text and routes it to the matching importer.
func parseImport(text string) (Format, []Product, error) {
	text = NormalizeText([]byte(text))
	format := DetectFormat(text)

	var (
		products []Product
		err      error
	)
	switch format {
	case FormatCatalog:
		products, err = ImportCatalog(text)
	default:
		products, err = ImportSimple(text)
	}
	return format, products, err
}
