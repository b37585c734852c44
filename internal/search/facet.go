package search

import (
	"github.com/xenking/kart-catalog/internal/domain/product"
)

// Facets are the refinement values present in a result set.
type Facets struct {
	Categories []string
	Fabrics    []string
}

// FacetsOf collects the distinct Category and Fabric values of products in
// first-seen order.
func FacetsOf(products []*product.Product) Facets {
	f := Facets{Categories: []string{}, Fabrics: []string{}}
	seenCat := make(map[string]struct{})
	seenFab := make(map[string]struct{})
	for _, p := range products {
		f.Categories = appendNew(f.Categories, seenCat, p.Attributes.Values(product.KeyCategory))
		f.Fabrics = appendNew(f.Fabrics, seenFab, p.Attributes.Values(product.KeyFabric))
	}
	return f
}

func appendNew(dst []string, seen map[string]struct{}, values []string) []string {
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		dst = append(dst, v)
	}
	return dst
}
