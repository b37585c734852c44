// Package search implements lexical search over a catalog snapshot: query
// normalization, fuzzy matching, weighted ranking, facets and filtering.
package search

import (
	"strings"

	"github.com/xenking/kart-catalog/internal/synonym"
)

// Normalizer turns raw queries into canonical tokens.
type Normalizer struct {
	synonyms *synonym.Table
}

// NewNormalizer returns a normalizer that remaps tokens through t. A nil
// table leaves tokens unchanged.
func NewNormalizer(t *synonym.Table) *Normalizer {
	return &Normalizer{synonyms: t}
}

// Normalize lowercases query, removes everything outside [a-z0-9] and
// whitespace, splits on whitespace and remaps each token one-to-one.
func (n *Normalizer) Normalize(query string) []string {
	tokens := strings.Fields(StripText(query))
	if n.synonyms == nil {
		return tokens
	}
	for i, tok := range tokens {
		tokens[i] = n.synonyms.Lookup(tok)
	}
	return tokens
}

// StripText lowercases s and drops every character outside [a-z0-9] and
// whitespace. Queries and the text they are matched against both go through
// it, so "women-sarees" and "Hand-woven" compare as "womensarees" and
// "handwoven".
func StripText(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAlnum(r) || isSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeText lowercases s and collapses every run of characters outside
// [a-z0-9] to one space. It splits catalog fields into words for fuzzy
// matching only; substring checks use StripText.
func NormalizeText(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if isAlnum(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
}
