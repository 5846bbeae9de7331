package core

import (
	"github.com/cockroachdb/errors"
)

// Error categories. Concrete errors are marked with one of these so callers
// can branch with errors.Is without depending on message text.
var (
	ErrImport         = errors.New("import error")
	ErrRemote         = errors.New("remote error")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrPersist        = errors.New("persist error")
	ErrTooManyImports = errors.New("too many concurrent imports, please try again later")
)

// newImportError builds a malformed-input error carrying a user hint.
func newImportError(hint, format string, args ...any) error {
	err := errors.Newf(format, args...)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return errors.Mark(err, ErrImport)
}

// newValidationError builds an error for a rejected mutation.
func newValidationError(format string, args ...any) error {
	return errors.Mark(errors.Newf(format, args...), ErrValidation)
}

// wrapPersist marks a backend failure.
func wrapPersist(err error, key string) error {
	return errors.Mark(errors.Wrapf(err, "persist %s", key), ErrPersist)
}

// NotFound returns an error for a missing product id.
func NotFound(id string) error {
	return errors.Mark(errors.Newf("product not found: %s", id), ErrNotFound)
}

// IsImportError reports whether err came from malformed CSV input.
func IsImportError(err error) bool {
	return errors.Is(err, ErrImport)
}

// importMessage renders an import failure for ImportResult.Error.
func importMessage(err error) string {
	msg := err.Error()
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		msg += ": " + hints[0]
	}
	return msg
}
