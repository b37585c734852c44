package search

import (
	"strings"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

// MinQueryLength is the shortest normalized query that is searched at all.
const MinQueryLength = 2

// Response is the outcome of one search or browse call.
type Response struct {
	// Tokens are the normalized query tokens; empty for browse.
	Tokens  []string
	Results []Result
	// Total counts every match before the result limit was applied.
	Total  int
	Facets Facets
}

// Engine runs queries against an Index.
type Engine struct {
	normalizer *Normalizer
	scorer     Scorer
}

// NewEngine returns an engine with the given normalizer and weights.
func NewEngine(n *Normalizer, w Weights) *Engine {
	return &Engine{normalizer: n, scorer: NewScorer(w)}
}

// Normalize exposes the engine's query normalization.
func (e *Engine) Normalize(query string) []string {
	return e.normalizer.Normalize(query)
}

// Search ranks the indexed catalog against query. Queries that normalize to
// fewer than MinQueryLength characters return an empty response.
func (e *Engine) Search(idx *Index, query string, limit int) Response {
	tokens := e.normalizer.Normalize(query)
	if len(strings.Join(tokens, " ")) < MinQueryLength {
		return emptyResponse(tokens)
	}

	all := e.scorer.RankDocuments(idx.Documents(), tokens)
	results := Truncate(all, limit)
	products := make([]*product.Product, len(results))
	for i, r := range results {
		products[i] = r.Product
	}
	return Response{
		Tokens:  tokens,
		Results: results,
		Total:   len(all),
		Facets:  FacetsOf(products),
	}
}

// Browse filters the indexed catalog by category and attributes.
func (e *Engine) Browse(idx *Index, categorySlug string, filters Filters) Response {
	products := idx.Filter(categorySlug, filters)
	results := make([]Result, len(products))
	for i, p := range products {
		results[i] = Result{Product: p}
	}
	return Response{
		Tokens:  []string{},
		Results: results,
		Total:   len(results),
		Facets:  FacetsOf(products),
	}
}

func emptyResponse(tokens []string) Response {
	if tokens == nil {
		tokens = []string{}
	}
	return Response{
		Tokens:  tokens,
		Results: []Result{},
		Facets:  Facets{Categories: []string{}, Fabrics: []string{}},
	}
}
