package governance

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-catalog/internal/attribute"
	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/taxonomy"
)

// Import column names. Lookups are case-insensitive.
const (
	ColHandle         = "Handle"
	ColTitle          = "Title"
	ColCategory       = "Category"
	ColPrice          = "Price"
	ColStock          = "Stock"
	ColImage          = "Image URL"
	ColDescription    = "Description"
	ColSKU            = "SKU"
	ColStatus         = "Status"
	ColDispatchTime   = "Dispatch Time"
	ColReturnEligible = "Return Eligible"
)

// DefaultMandatory lists the columns every row must fill.
var DefaultMandatory = []string{ColHandle, ColTitle, ColCategory, ColPrice, ColStock, ColImage}

const (
	DefaultMaxTitle       = 70
	DefaultMaxDescription = 160
)

// MaxStock is the largest accepted stock, the range of an INTEGER column.
const MaxStock = math.MaxInt32

// MaxPrice is the largest accepted major-unit price.
var MaxPrice = decimal.New(9_999_999_999, -2)

var handlePattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var imageSchemes = []string{"http://", "https://"}

// RowResult is the outcome of validating one row.
type RowResult struct {
	Row      int
	Handle   string
	Errors   []*RowError
	Warnings []*RowError
}

// OK reports whether the row is free of errors. Warnings do not count.
func (r RowResult) OK() bool {
	return len(r.Errors) == 0
}

// Validator checks single rows against the taxonomy and attribute dictionary.
type Validator struct {
	taxonomy         *taxonomy.Registry
	attrs            *attribute.Dictionary
	mandatory        []string
	canonicalHandles bool
	maxTitle         int
	maxDescription   int
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithMandatory adds columns to the mandatory list.
func WithMandatory(cols ...string) ValidatorOption {
	return func(v *Validator) {
		v.mandatory = append(v.mandatory, cols...)
	}
}

// WithCanonicalHandles toggles the lowercase-hyphen handle check.
func WithCanonicalHandles(required bool) ValidatorOption {
	return func(v *Validator) {
		v.canonicalHandles = required
	}
}

// WithSEOLimits sets the title and description length ceilings. Zero
// disables the corresponding check.
func WithSEOLimits(title, description int) ValidatorOption {
	return func(v *Validator) {
		v.maxTitle = title
		v.maxDescription = description
	}
}

// NewValidator returns a validator bound to the given vocabularies.
func NewValidator(tax *taxonomy.Registry, attrs *attribute.Dictionary, opts ...ValidatorOption) *Validator {
	v := &Validator{
		taxonomy:         tax,
		attrs:            attrs,
		mandatory:        append([]string(nil), DefaultMandatory...),
		canonicalHandles: true,
		maxTitle:         DefaultMaxTitle,
		maxDescription:   DefaultMaxDescription,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateRow runs every row check and collects the problems. It never
// stops at the first failure.
func (v *Validator) ValidateRow(row Row) RowResult {
	res := RowResult{Row: row.Number, Handle: row.Get(ColHandle)}
	fail := func(field string, kind error, format string, args ...any) {
		res.Errors = append(res.Errors, NewRowError(row.Number, field, kind, format, args...))
	}

	for _, col := range v.mandatory {
		if row.Get(col) == "" {
			fail(col, ErrMissingField, "Missing mandatory field '%s'", col)
		}
	}

	category := row.Get(ColCategory)
	if category != "" && !v.taxonomy.IsValidSlug(category) {
		fail(ColCategory, ErrUnknownCategory, "Invalid category '%s'", category)
	}

	for _, c := range v.attrs.Configs(category) {
		for _, err := range v.attrs.ValidateEnum(c.Key, row.Get(c.Key), category) {
			var enumErr *attribute.EnumError
			if errors.As(err, &enumErr) {
				fail(c.Key, ErrInvalidEnumValue, "%s", enumErr.Error())
			}
		}
	}
	if s := row.Get(ColStatus); s != "" && !product.Status(strings.ToLower(s)).Valid() {
		fail(ColStatus, ErrInvalidEnumValue, "Invalid Status '%s'. Allowed: draft, proposed, published, rejected", s)
	}

	if raw := row.Get(ColPrice); raw != "" {
		if _, err := ParsePrice(raw); err != nil {
			fail(ColPrice, ErrInvalidNumber, "Invalid price '%s'. Must be a positive number with at most 2 decimals, up to %s", raw, MaxPrice.StringFixed(2))
		}
	}
	if raw := row.Get(ColStock); raw != "" {
		if _, err := ParseStock(raw); err != nil {
			fail(ColStock, ErrInvalidNumber, "Invalid stock '%s'. Must be a non-negative integer, up to %d", raw, MaxStock)
		}
	}

	if img := row.Get(ColImage); img != "" && !hasImageScheme(img) {
		fail(ColImage, ErrInvalidImage, "Invalid image URL '%s'. Must start with http:// or https://", img)
	}

	if h := res.Handle; h != "" && v.canonicalHandles && !handlePattern.MatchString(h) {
		fail(ColHandle, ErrInvalidHandle, "Invalid handle '%s'. Use lowercase letters, digits and hyphens", h)
	}

	warn := func(field string, n, limit int) {
		res.Warnings = append(res.Warnings, NewRowError(row.Number, field, ErrSeoLength,
			"%s is %d characters; recommended maximum is %d", field, n, limit))
	}
	if n := utf8.RuneCountInString(row.Get(ColTitle)); v.maxTitle > 0 && n > v.maxTitle {
		warn(ColTitle, n, v.maxTitle)
	}
	if n := utf8.RuneCountInString(row.Get(ColDescription)); v.maxDescription > 0 && n > v.maxDescription {
		warn(ColDescription, n, v.maxDescription)
	}

	return res
}

func hasImageScheme(s string) bool {
	s = strings.ToLower(s)
	for _, scheme := range imageSchemes {
		if strings.HasPrefix(s, scheme) && len(s) > len(scheme) {
			return true
		}
	}
	return false
}

// ParsePrice parses a major-unit price. It must be positive, at most
// MaxPrice, and must not carry fractions of a minor unit.
func ParsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, errors.Wrap(ErrInvalidNumber, "parse price")
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.Wrap(ErrInvalidNumber, "price not positive")
	}
	if !d.Shift(2).IsInteger() {
		return decimal.Zero, errors.Wrap(ErrInvalidNumber, "price has sub-minor-unit precision")
	}
	if d.GreaterThan(MaxPrice) {
		return decimal.Zero, errors.Wrap(ErrInvalidNumber, "price above maximum")
	}
	return d, nil
}

// MinorUnits converts a major-unit price to an integer count of minor units.
func MinorUnits(price decimal.Decimal) int64 {
	return price.Shift(2).IntPart()
}

// ParseStock parses a non-negative inventory quantity no larger than MaxStock.
func ParseStock(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > MaxStock {
		return 0, errors.Wrap(ErrInvalidNumber, "parse stock")
	}
	return n, nil
}
