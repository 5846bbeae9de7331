// Package core provides the product catalog ingestion engine and data model.
//
// This package holds all domain logic independent of any transport. It can be
// used by the web handlers, a CLI, or tests without modification.
//
// # Architecture
//
//   - Line parser: [ParseLine] tokenizes one CSV line, honoring quotes.
//   - Format detection: [DetectFormat] picks [FormatCatalog] or [FormatSimple].
//   - Importers: [ImportSimple] maps a header-row CSV onto flat products;
//     [ImportCatalog] groups per-size rows into one product with variations.
//   - Store: [Store] owns the products and the per-product [ProductConfig]
//     overlays and persists both on every mutation.
//   - Export: [ExportCSV] and [ExportXLSX] write products back out.
//
// # Import Flow
//
//  1. Caller passes raw text to [Store.ImportCSV]
//  2. Text is normalized (BOM, invalid UTF-8, line endings)
//  3. [DetectFormat] routes to the matching importer
//  4. Products are added to the store; grouped products get a size overlay
//  5. Failures come back in [ImportResult] instead of as an error
//
// # Overlays
//
// A [ProductConfig] is keyed by product id but is not deleted with the
// product. An empty EnabledTabs list means every tab is shown.
package core
