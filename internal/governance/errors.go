package governance

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-catalog/internal/attribute"
)

// Row problem kinds. Match a *RowError against them with errors.Is.
var (
	ErrMissingField     = errors.New("missing mandatory field")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrInvalidEnumValue = attribute.ErrInvalidValue
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidImage     = errors.New("invalid image reference")
	ErrInvalidHandle    = errors.New("invalid handle format")
	ErrDuplicateHandle  = errors.New("duplicate handle")
	ErrSeoLength        = errors.New("seo length exceeded")
)

// RowError is one problem found on one import row. Warnings use the same
// type with Kind ErrSeoLength.
type RowError struct {
	// File names the source document in multi-file imports.
	File    string
	Row     int
	Field   string
	Kind    error
	Message string
}

func (e *RowError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: Row %d: %s", e.File, e.Row, e.Message)
	}
	return fmt.Sprintf("Row %d: %s", e.Row, e.Message)
}

func (e *RowError) Unwrap() error {
	return e.Kind
}

// NewRowError builds a RowError with a formatted message.
func NewRowError(row int, field string, kind error, format string, args ...any) *RowError {
	return &RowError{
		Row:     row,
		Field:   field,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}
