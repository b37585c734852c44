// Package catalog owns the live catalog snapshot: it governs imports,
// persists accepted products and serves search and browse over the
// published snapshot.
package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/xenking/kart-catalog/internal/domain/product"
	"github.com/xenking/kart-catalog/internal/search"
)

// Snapshot is an immutable, fully indexed catalog version. Readers holding a
// snapshot keep a consistent view after newer versions are published.
type Snapshot struct {
	Index       *search.Index
	Fingerprint uint64
	PublishedAt time.Time
}

// NewSnapshot indexes products. The snapshot takes ownership of the slice.
func NewSnapshot(products []product.Product) *Snapshot {
	return &Snapshot{
		Index:       search.NewIndex(products),
		Fingerprint: Fingerprint(products),
		PublishedAt: time.Now(),
	}
}

// Products returns the snapshot's products in catalog order.
func (s *Snapshot) Products() []product.Product {
	return s.Index.Products()
}

// Len returns the number of products.
func (s *Snapshot) Len() int {
	return s.Index.Len()
}

// Version renders the fingerprint as a fixed-width hex string.
func (s *Snapshot) Version() string {
	return fmt.Sprintf("%016x", s.Fingerprint)
}

// Fingerprint hashes every stored field of products, in order. Identical
// catalogs hash identically regardless of map iteration order.
func Fingerprint(products []product.Product) uint64 {
	h := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = h.WriteString(p)
			_, _ = h.Write([]byte{0})
		}
	}
	for i := range products {
		p := &products[i]
		write(p.ID, p.Title, p.Description, p.Thumbnail, string(p.Status))
		for _, tag := range p.Attributes.Tags() {
			write(tag.String())
		}
		keys := make([]string, 0, len(p.Metadata))
		for k := range p.Metadata {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			write(k, p.Metadata[k])
		}
		for _, v := range p.Variants {
			write(v.ID, v.Title, v.SKU, strconv.Itoa(v.InventoryQuantity))
			for _, pr := range v.Prices {
				write(pr.CurrencyCode, strconv.FormatInt(pr.Amount, 10))
			}
		}
		_, _ = h.Write([]byte{1})
	}
	return h.Sum64()
}

// Store holds the current snapshot. Reads are lock-free; Replace publishes a
// new snapshot with a single atomic swap.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns a store publishing an empty catalog.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot(nil))
	return s
}

// Current returns the published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace publishes snap and returns the snapshot it superseded.
func (s *Store) Replace(snap *Snapshot) *Snapshot {
	return s.current.Swap(snap)
}
