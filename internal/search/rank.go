package search

import (
	"cmp"
	"slices"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

// Result is a product with its relevance score.
type Result struct {
	Product *product.Product
	Score   int
}

// Rank scores every product in catalog, drops zero scores and orders the
// rest by descending score. Equal scores keep catalog order. A limit of zero
// or less returns every match.
func (s Scorer) Rank(catalog []product.Product, tokens []string, limit int) []Result {
	docs := make([]Document, len(catalog))
	for i := range catalog {
		docs[i] = NewDocument(&catalog[i])
	}
	return Truncate(s.RankDocuments(docs, tokens), limit)
}

// RankDocuments is Rank over precomputed documents, without truncation.
func (s Scorer) RankDocuments(docs []Document, tokens []string) []Result {
	var results []Result
	for i := range docs {
		if score := s.Score(&docs[i], tokens); score > 0 {
			results = append(results, Result{Product: docs[i].Product, Score: score})
		}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results
}

// Truncate returns at most limit results. A limit of zero or less is no limit.
func Truncate(results []Result, limit int) []Result {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
