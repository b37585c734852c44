package product

import (
	"context"
	"maps"
	"slices"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Status is the editorial lifecycle state of a product. The catalog core
// treats every status as searchable; callers filter when they need to.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusProposed  Status = "proposed"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusProposed, StatusPublished, StatusRejected:
		return true
	default:
		return false
	}
}

// Product represents a governed catalog item.
type Product struct {
	// ID is the canonical handle, unique within a snapshot.
	ID          string
	Title       string
	Description string
	Thumbnail   string
	Status      Status
	Variants    []Variant
	Attributes  Attributes
	Metadata    map[string]string
}

// Category returns the first category slug the product is filed under.
func (p *Product) Category() string {
	return p.Attributes.First(KeyCategory)
}

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID                string
	Title             string
	SKU               string
	InventoryQuantity int
	Prices            []Price
}

// Price is an amount in the smallest unit of its currency (paisa, cents).
type Price struct {
	CurrencyCode string
	Amount       int64
}

// Amount returns the variant price in the given currency.
func (v Variant) Amount(currency string) (int64, bool) {
	for _, p := range v.Prices {
		if p.CurrencyCode == currency {
			return p.Amount, true
		}
	}
	return 0, false
}

// Repository is the persistence boundary for catalog snapshots. The core only
// ever reads a whole snapshot or replaces it wholesale.
type Repository interface {
	Load(ctx context.Context) ([]Product, error)
	Replace(ctx context.Context, products []Product) error
}

// Clone returns a deep copy of p.
func (p Product) Clone() Product {
	out := p
	out.Attributes = p.Attributes.Clone()
	if p.Metadata != nil {
		out.Metadata = maps.Clone(p.Metadata)
	}
	out.Variants = make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		v.Prices = slices.Clone(v.Prices)
		out.Variants[i] = v
	}
	return out
}
