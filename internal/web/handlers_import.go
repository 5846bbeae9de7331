package web

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/catalog/internal/core"
	"github.com/JonMunkholm/catalog/internal/logging"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	errNoFile    = errors.New("no file provided")
	errEmptyFile = errors.New("empty file")
)

// readImportText returns the uploaded file as CSV text. It accepts a
// multipart "file" field or a raw body. Workbooks are converted from their
// first sheet.
func (s *Server) readImportText(w http.ResponseWriter, r *http.Request) (string, error) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	var (
		data []byte
		name string
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxSize); err != nil {
			return "", errors.Wrap(err, "file too large or invalid form")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", errNoFile
		}
		defer file.Close()
		name = header.Filename

		data, err = io.ReadAll(file)
		if err != nil {
			return "", errors.Wrap(err, "read upload")
		}
	} else {
		data, err = io.ReadAll(r.Body)
		if err != nil {
			return "", errors.Wrap(err, "read body")
		}
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return "", errEmptyFile
	}

	if isWorkbook(name, r.Header.Get("Content-Type")) {
		return core.XLSXToCSV(bytes.NewReader(data))
	}
	return string(data), nil
}

func isWorkbook(filename, contentType string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx") ||
		strings.HasPrefix(contentType, xlsxContentType)
}

// handleImport detects the file's format and adds its products to the
// store. Imports are serialized through the limiter.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	text, err := s.readImportText(w, r)
	if err != nil {
		s.respondError(w, r, err, importStatus(err))
		return
	}

	var res core.ImportResult
	err = s.limiter.Do(r.Context(), func(ctx context.Context) error {
		if s.remote == nil {
			res = s.store.ImportCSV(ctx, text)
			return nil
		}
		imported, err := s.importViaRemote(ctx, text)
		res = imported
		return err
	})
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	logger := logging.WithFields(r.Context(), "format", res.Format)
	if !res.Success {
		logger.Warn("import failed", "error", res.Error)
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	logger.Info("import completed", "products", len(res.Products), "configs", res.Configs)
	writeJSON(w, http.StatusOK, res)
}

// importViaRemote creates every parsed product on the remote before it is
// stored locally, so a later sync pull keeps it. The local record keeps its
// parsed fields and takes the remote id.
func (s *Server) importViaRemote(ctx context.Context, text string) (core.ImportResult, error) {
	parsed := core.PreviewCSV(text)
	if !parsed.Success {
		return parsed, nil
	}

	products := parsed.Products
	for i, p := range products {
		created, err := s.remote.Create(ctx, p)
		if err != nil {
			return core.ImportResult{}, err
		}
		products[i].ID = created.ID
	}
	return s.store.ImportProducts(ctx, parsed.Format, products), nil
}

// handlePreview runs the import pipeline without storing anything.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	text, err := s.readImportText(w, r)
	if err != nil {
		s.respondError(w, r, err, importStatus(err))
		return
	}

	res := s.store.PreviewCSV(text)
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// importStatus maps upload read failures to a client status.
func importStatus(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile), errors.Is(err, errEmptyFile):
		return http.StatusBadRequest
	default:
		return statusFor(err)
	}
}

// handleExport streams products as CSV (default) or XLSX.
// Query: ?module=<module>&format=csv|xlsx
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	module := r.URL.Query().Get("module")
	format := strings.ToLower(r.URL.Query().Get("format"))

	base := "products"
	if module != "" {
		base = "products-" + module
	}

	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+base+`.csv"`)
		io.WriteString(w, s.store.ExportCSV(module))

	case "xlsx":
		products := s.store.All()
		if module != "" {
			products = s.store.ByModule(module)
		}
		var buf bytes.Buffer
		if err := core.ExportXLSX(&buf, products); err != nil {
			s.respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", xlsxContentType)
		w.Header().Set("Content-Disposition", `attachment; filename="`+base+`.xlsx"`)
		w.Write(buf.Bytes())

	default:
		s.respondError(w, r, errors.Mark(errors.Newf("unsupported export format %q", format), core.ErrValidation), 0)
	}
}
