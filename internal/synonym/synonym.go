// Package synonym maps colloquial search terms onto catalog vocabulary.
package synonym

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var defaultSynonyms []byte

// ErrMultiToken is returned when a mapping would split or merge tokens.
var ErrMultiToken = errors.New("synonym must map one token to one token")

// Table is an immutable one-token-to-one-token remapping.
type Table struct {
	m map[string]string
}

// New builds a table from term -> canonical pairs. Both sides are
// lowercased and must be single whitespace-free tokens.
func New(pairs map[string]string) (*Table, error) {
	t := &Table{m: make(map[string]string, len(pairs))}
	for from, to := range pairs {
		from, to = strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
		if from == "" || to == "" || strings.ContainsFunc(from+to, isSpace) {
			return nil, errors.Wrapf(ErrMultiToken, "%q -> %q", from, to)
		}
		t.m[from] = to
	}
	return t, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// Load decodes a YAML mapping of term -> canonical token.
func Load(rd io.Reader) (*Table, error) {
	var pairs map[string]string
	if err := yaml.NewDecoder(rd).Decode(&pairs); err != nil {
		return nil, errors.Wrap(err, "decode synonyms")
	}
	return New(pairs)
}

// LoadFile decodes the synonym table stored at path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open synonyms")
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Default returns the table built from the embedded synonym file.
func Default() *Table {
	t, err := Load(bytes.NewReader(defaultSynonyms))
	if err != nil {
		panic(errors.Wrap(err, "embedded synonyms"))
	}
	return t
}

// Lookup returns the canonical form of token, or token itself.
func (t *Table) Lookup(token string) string {
	if to, ok := t.m[token]; ok {
		return to
	}
	return token
}

// Len returns the number of mappings.
func (t *Table) Len() int {
	return len(t.m)
}
