package search

import (
	"strings"

	"github.com/xenking/kart-catalog/internal/domain/product"
)

// Weights are the per-token score contributions of each matching field.
type Weights struct {
	TitleExact    int `yaml:"title_exact" default:"100"`
	TitleFuzzy    int `yaml:"title_fuzzy" default:"50"`
	CategoryExact int `yaml:"category_exact" default:"40"`
	CategoryFuzzy int `yaml:"category_fuzzy" default:"20"`
	Attribute     int `yaml:"attribute" default:"25"`
	Description   int `yaml:"description" default:"5"`
}

// DefaultWeights returns the stock ranking weights.
func DefaultWeights() Weights {
	return Weights{
		TitleExact:    100,
		TitleFuzzy:    50,
		CategoryExact: 40,
		CategoryFuzzy: 20,
		Attribute:     25,
		Description:   5,
	}
}

// field holds a catalog value stripped like a query for substring checks,
// and split into words for fuzzy checks.
type field struct {
	text  string
	words []string
}

func newField(s string) field {
	return field{text: StripText(s), words: strings.Fields(NormalizeText(s))}
}

// Document is a product with its searchable fields normalized once.
type Document struct {
	Product     *product.Product
	title       field
	categories  []field
	attributes  []field
	description string
}

// NewDocument precomputes the normalized fields of p.
func NewDocument(p *product.Product) Document {
	d := Document{
		Product:     p,
		title:       newField(p.Title),
		description: StripText(p.Description),
	}
	for _, k := range p.Attributes.Keys() {
		for _, v := range p.Attributes.Values(k) {
			if k == product.KeyCategory {
				d.categories = append(d.categories, newField(v))
			} else {
				d.attributes = append(d.attributes, newField(v))
			}
		}
	}
	return d
}

// Scorer computes weighted relevance.
type Scorer struct {
	Weights Weights
}

// NewScorer returns a scorer using w.
func NewScorer(w Weights) Scorer {
	return Scorer{Weights: w}
}

// Score sums the contribution of every token. Per token the title is checked
// first, then the category, then every other attribute value; the
// description only counts when none of those matched.
func (s Scorer) Score(d *Document, tokens []string) int {
	total := 0
	for _, tok := range tokens {
		total += s.scoreToken(d, tok)
	}
	return total
}

func (s Scorer) scoreToken(d *Document, tok string) int {
	score := 0
	matched := false

	switch {
	case strings.Contains(d.title.text, tok):
		score += s.Weights.TitleExact
		matched = true
	case fuzzyAnyWord(d.title.words, tok):
		score += s.Weights.TitleFuzzy
		matched = true
	}

	switch {
	case anyContains(d.categories, tok):
		score += s.Weights.CategoryExact
		matched = true
	case anyFuzzy(d.categories, tok):
		score += s.Weights.CategoryFuzzy
		matched = true
	}

	for _, a := range d.attributes {
		if strings.Contains(a.text, tok) || fuzzyAnyWord(a.words, tok) {
			score += s.Weights.Attribute
			matched = true
		}
	}

	if !matched && strings.Contains(d.description, tok) {
		score += s.Weights.Description
	}
	return score
}

func anyContains(fields []field, tok string) bool {
	for _, f := range fields {
		if strings.Contains(f.text, tok) {
			return true
		}
	}
	return false
}

func anyFuzzy(fields []field, tok string) bool {
	for _, f := range fields {
		if fuzzyAnyWord(f.words, tok) {
			return true
		}
	}
	return false
}

// ScoreProduct scores a product that has no precomputed document.
func (s Scorer) ScoreProduct(p *product.Product, tokens []string) int {
	d := NewDocument(p)
	return s.Score(&d, tokens)
}
