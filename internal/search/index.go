package search

import (
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

// CategoryAll matches every product in a category filter.
const CategoryAll = "all"

// Filters selects products by attribute: OR across the values of one key,
// AND across keys. Keys with no values are ignored.
type Filters map[string][]string

// Index is an immutable search index over one catalog snapshot. Postings are
// roaring bitmaps of catalog positions, so filter results keep catalog order.
type Index struct {
	products []product.Product
	docs     []Document
	byID     map[string]int
	all      *roaring.Bitmap
	// tags maps the "Key:Value" encoding to products carrying it.
	tags map[string]*roaring.Bitmap
	// values maps lowercased attribute values of any key to products.
	values map[string]*roaring.Bitmap
}

// NewIndex indexes products. The slice is retained and must not be mutated.
func NewIndex(products []product.Product) *Index {
	idx := &Index{
		products: products,
		docs:     make([]Document, len(products)),
		byID:     make(map[string]int, len(products)),
		all:      roaring.New(),
		tags:     make(map[string]*roaring.Bitmap),
		values:   make(map[string]*roaring.Bitmap),
	}
	for i := range products {
		p := &products[i]
		pos := uint32(i)
		idx.docs[i] = NewDocument(p)
		idx.byID[p.ID] = i
		idx.all.Add(pos)
		for _, tag := range p.Attributes.Tags() {
			posting(idx.tags, tag.String()).Add(pos)
			posting(idx.values, strings.ToLower(tag.Value)).Add(pos)
		}
	}
	return idx
}

func posting(m map[string]*roaring.Bitmap, key string) *roaring.Bitmap {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	return bm
}

// Products returns the indexed catalog in its original order.
func (idx *Index) Products() []product.Product {
	return idx.products
}

// Documents returns the precomputed search documents.
func (idx *Index) Documents() []Document {
	return idx.docs
}

// Len returns the number of indexed products.
func (idx *Index) Len() int {
	return len(idx.products)
}

// Lookup returns the product with handle id.
func (idx *Index) Lookup(id string) (*product.Product, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return nil, false
	}
	return &idx.products[i], true
}

// Filter returns the products passing the category predicate and every
// attribute filter, in catalog order.
func (idx *Index) Filter(categorySlug string, filters Filters) []*product.Product {
	match := idx.all.Clone()
	if slug := strings.ToLower(strings.TrimSpace(categorySlug)); slug != "" && slug != CategoryAll {
		cat := roaring.New()
		for v, bm := range idx.values {
			if strings.Contains(v, slug) {
				cat.Or(bm)
			}
		}
		match.And(cat)
	}

	for key, values := range filters {
		if len(values) == 0 {
			continue
		}
		anyOf := roaring.New()
		for _, v := range values {
			if bm, ok := idx.tags[product.Tag{Key: key, Value: v}.String()]; ok {
				anyOf.Or(bm)
			}
		}
		match.And(anyOf)
	}

	out := make([]*product.Product, 0, match.GetCardinality())
	it := match.Iterator()
	for it.HasNext() {
		out = append(out, &idx.products[it.Next()])
	}
	return out
}

// Filter applies a category slug and attribute filters to catalog.
func Filter(catalog []product.Product, categorySlug string, filters Filters) []*product.Product {
	return NewIndex(catalog).Filter(categorySlug, filters)
}
