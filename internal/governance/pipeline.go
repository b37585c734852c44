package governance

import (
	"io"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/kart-catalog/internal/attribute"
	"github.com/xenking/kart-catalog/internal/domain/product"
)

// VariantNamespace seeds the deterministic variant IDs derived from handles.
var VariantNamespace = uuid.MustParse("4b7f2c0e-6a1d-5c8e-9f3a-2d6b1e0c7a95")

// DefaultPassthrough lists the columns copied verbatim into product metadata.
var DefaultPassthrough = []string{ColDispatchTime, ColReturnEligible}

// Report is the result of one batch import. Rows with errors are left out of
// Products but their errors are kept.
type Report struct {
	Products []product.Product
	Errors   []*RowError
	Warnings []*RowError
	Rows     []RowResult
}

// Accepted returns the number of governed products.
func (r *Report) Accepted() int {
	return len(r.Products)
}

// Rejected returns the number of rows excluded for errors.
func (r *Report) Rejected() int {
	return len(r.Rows) - len(r.Products)
}

// Success reports whether the batch produced anything to commit.
func (r *Report) Success() bool {
	return len(r.Products) > 0
}

// ErrorStrings renders the row-qualified error messages.
func (r *Report) ErrorStrings() []string {
	return rowErrorStrings(r.Errors)
}

// WarningStrings renders the row-qualified warning messages.
func (r *Report) WarningStrings() []string {
	return rowErrorStrings(r.Warnings)
}

func rowErrorStrings(errs []*RowError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

// Pipeline validates whole documents and assembles governed products from
// the rows that pass.
type Pipeline struct {
	validator     *Validator
	attrs         *attribute.Dictionary
	passthrough   []string
	currency      string
	defaultStatus product.Status
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPassthrough adds metadata pass-through columns. Columns already
// passed through are ignored.
func WithPassthrough(cols ...string) PipelineOption {
	return func(p *Pipeline) {
		for _, c := range cols {
			if !slices.Contains(p.passthrough, c) {
				p.passthrough = append(p.passthrough, c)
			}
		}
	}
}

// WithCurrency sets the currency code of imported prices.
func WithCurrency(code string) PipelineOption {
	return func(p *Pipeline) {
		p.currency = strings.ToUpper(code)
	}
}

// WithDefaultStatus sets the status of rows without a Status column value.
func WithDefaultStatus(s product.Status) PipelineOption {
	return func(p *Pipeline) {
		p.defaultStatus = s
	}
}

// NewPipeline returns a pipeline that validates with v.
func NewPipeline(v *Validator, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		validator:     v,
		attrs:         v.attrs,
		passthrough:   append([]string(nil), DefaultPassthrough...),
		currency:      "INR",
		defaultStatus: product.StatusProposed,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Currency returns the currency code imported prices are stored in.
func (p *Pipeline) Currency() string {
	return p.currency
}

// ImportReader reads the whole document from rd and imports it.
func (p *Pipeline) ImportReader(rd io.Reader) (*Report, error) {
	raw, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrap(err, "read document")
	}
	return p.Import(string(raw))
}

// Import validates every row of raw. Only empty or header-only documents
// fail as a whole; everything else yields a report.
func (p *Pipeline) Import(raw string) (*Report, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	report := &Report{Rows: make([]RowResult, 0, len(doc.Rows))}
	seen := make(map[string]int, len(doc.Rows))
	for _, row := range doc.Rows {
		res := p.validator.ValidateRow(row)
		if first, dup := seen[res.Handle]; dup && res.Handle != "" {
			res.Errors = append(res.Errors, NewRowError(row.Number, ColHandle, ErrDuplicateHandle,
				"Duplicate handle '%s' (first seen on row %d)", res.Handle, first))
		}

		report.Rows = append(report.Rows, res)
		report.Errors = append(report.Errors, res.Errors...)
		report.Warnings = append(report.Warnings, res.Warnings...)
		if !res.OK() {
			continue
		}

		seen[res.Handle] = row.Number
		report.Products = append(report.Products, p.assemble(row))
	}
	return report, nil
}

// assemble builds the governed product for a row that passed validation.
func (p *Pipeline) assemble(row Row) product.Product {
	handle := row.Get(ColHandle)
	category := row.Get(ColCategory)

	price, _ := ParsePrice(row.Get(ColPrice))
	stock, _ := ParseStock(row.Get(ColStock))

	sku := row.Get(ColSKU)
	if sku == "" {
		sku = handle
	}

	status := p.defaultStatus
	if s := row.Get(ColStatus); s != "" {
		status = product.Status(strings.ToLower(s))
	}

	attrs := product.Attributes{}
	attrs.Add(product.KeyCategory, category)
	for _, c := range p.attrs.Configs(category) {
		if c.Kind != attribute.KindMulti {
			continue
		}
		for _, v := range p.attrs.Canonical(c.Key, row.Get(c.Key), category) {
			attrs.Add(c.Key, v)
		}
	}

	var metadata map[string]string
	for _, col := range p.passthrough {
		if v := row.Get(col); v != "" {
			if metadata == nil {
				metadata = make(map[string]string, len(p.passthrough))
			}
			metadata[col] = v
		}
	}

	return product.Product{
		ID:          handle,
		Title:       row.Get(ColTitle),
		Description: row.Get(ColDescription),
		Thumbnail:   row.Get(ColImage),
		Status:      status,
		Variants: []product.Variant{{
			ID:                uuid.NewSHA1(VariantNamespace, []byte(handle)).String(),
			Title:             "Default",
			SKU:               sku,
			InventoryQuantity: stock,
			Prices:            []product.Price{{CurrencyCode: p.currency, Amount: MinorUnits(price)}},
		}},
		Attributes: attrs,
		Metadata:   metadata,
	}
}
