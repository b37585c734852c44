package search

import (
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Tolerance returns the edit distance allowed for a term: none up to three
// characters, one up to six, two beyond.
func Tolerance(term string) int {
	switch n := utf8.RuneCountInString(term); {
	case n <= 3:
		return 0
	case n <= 6:
		return 1
	default:
		return 2
	}
}

// IsFuzzyMatch reports whether target contains term or lies within the
// term's edit-distance tolerance of it.
func IsFuzzyMatch(target, term string) bool {
	if strings.Contains(target, term) {
		return true
	}
	tol := Tolerance(term)
	if tol == 0 {
		return false
	}
	diff := utf8.RuneCountInString(target) - utf8.RuneCountInString(term)
	if diff > tol || -diff > tol {
		return false
	}
	return edlib.LevenshteinDistance(target, term) <= tol
}

// fuzzyAnyWord reports whether any word of a normalized field fuzzily
// matches term.
func fuzzyAnyWord(words []string, term string) bool {
	for _, w := range words {
		if IsFuzzyMatch(w, term) {
			return true
		}
	}
	return false
}
