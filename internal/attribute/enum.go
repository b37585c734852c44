package attribute

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
)

// Separator splits multi-valued cells.
const Separator = "|"

// ErrInvalidValue is the kind of every enum violation.
var ErrInvalidValue = errors.New("invalid attribute value")

// EnumError names one offending part of a field value. Its message lists the
// allowed options so operators can fix the row from the report alone.
type EnumError struct {
	Key     string
	Value   string
	Options []string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("Invalid %s '%s'. Allowed: %s", e.Key, e.Value, strings.Join(e.Options, ", "))
}

func (e *EnumError) Unwrap() error {
	return ErrInvalidValue
}

// SplitValues splits a cell on Separator, trimming and dropping empty parts.
func SplitValues(raw string) []string {
	var parts []string
	for _, p := range strings.Split(raw, Separator) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// ValidateEnum checks every pipe-delimited part of raw against the options
// configured for key in category. Empty values and keys that are not multi
// attributes produce no errors; presence is checked elsewhere.
func (d *Dictionary) ValidateEnum(key, raw, category string) []error {
	c, ok := d.Lookup(key, category)
	if !ok || c.Kind != KindMulti {
		return nil
	}

	var errs []error
	for _, part := range SplitValues(raw) {
		if !containsFold(c.Options, part) {
			errs = append(errs, &EnumError{Key: c.Key, Value: part, Options: c.Options})
		}
	}
	return errs
}

// Canonical maps every part of raw onto the configured option spelling.
// Parts without a matching option are returned unchanged.
func (d *Dictionary) Canonical(key, raw, category string) []string {
	parts := SplitValues(raw)
	c, ok := d.Lookup(key, category)
	if !ok {
		return parts
	}
	for i, part := range parts {
		for _, opt := range c.Options {
			if strings.EqualFold(opt, part) {
				parts[i] = opt
				break
			}
		}
	}
	return parts
}
