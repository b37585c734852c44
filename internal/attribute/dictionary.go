// Package attribute holds the attribute dictionary: which attribute keys a
// catalog row may carry and which enumerated values each key accepts.
package attribute

import (
	"bytes"
	_ "embed"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

//go:embed attributes.yaml
var defaultAttributes []byte

// Kind describes how an attribute's values are constrained.
type Kind string

const (
	// KindMulti attributes accept one or more values from a fixed option list.
	KindMulti Kind = "multi"
	// KindRange attributes are numeric ranges and carry no option list.
	KindRange Kind = "range"
)

// ErrUnknownKind is returned for configs with a kind other than multi/range.
var ErrUnknownKind = errors.New("unknown attribute kind")

// Config describes one attribute key.
type Config struct {
	Key     string   `yaml:"key"`
	Label   string   `yaml:"label"`
	Kind    Kind     `yaml:"kind"`
	Options []string `yaml:"options,omitempty"`
	// Categories scopes the config to rows filed under these category slugs.
	// An empty list makes the config global.
	Categories []string `yaml:"categories,omitempty"`
}

// Dictionary is the immutable set of attribute configs.
type Dictionary struct {
	global     []Config
	byCategory map[string][]Config
	keys       []string
}

// NewDictionary validates configs and indexes them by scope.
func NewDictionary(configs []Config) (*Dictionary, error) {
	d := &Dictionary{byCategory: make(map[string][]Config)}
	for _, c := range configs {
		if c.Key == "" {
			return nil, errors.New("attribute key is empty")
		}
		if c.Kind != KindMulti && c.Kind != KindRange {
			return nil, errors.Wrapf(ErrUnknownKind, "%q for %q", c.Kind, c.Key)
		}
		if !slices.ContainsFunc(d.keys, func(k string) bool { return strings.EqualFold(k, c.Key) }) {
			d.keys = append(d.keys, c.Key)
		}
		if len(c.Categories) == 0 {
			d.global = append(d.global, c)
			continue
		}
		for _, slug := range c.Categories {
			d.byCategory[slug] = append(d.byCategory[slug], c)
		}
	}
	return d, nil
}

// Load decodes a YAML list of attribute configs.
func Load(rd io.Reader) (*Dictionary, error) {
	var configs []Config
	if err := yaml.NewDecoder(rd).Decode(&configs); err != nil {
		return nil, errors.Wrap(err, "decode attribute dictionary")
	}
	return NewDictionary(configs)
}

// LoadFile decodes the attribute dictionary stored at path.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open attribute dictionary")
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Default returns the dictionary built from the embedded attribute file.
func Default() *Dictionary {
	d, err := Load(bytes.NewReader(defaultAttributes))
	if err != nil {
		panic(errors.Wrap(err, "embedded attribute dictionary"))
	}
	return d
}

// Keys returns every configured attribute key in declaration order.
func (d *Dictionary) Keys() []string {
	return d.keys
}

// Configs returns the configs that apply to rows in category: every global
// config merged with the category-scoped ones. Options of a key configured
// in both scopes are unioned.
func (d *Dictionary) Configs(category string) []Config {
	out := make([]Config, 0, len(d.global))
	for _, c := range d.global {
		c.Options = slices.Clone(c.Options)
		out = append(out, c)
	}
	for _, c := range d.byCategory[category] {
		i := slices.IndexFunc(out, func(o Config) bool { return strings.EqualFold(o.Key, c.Key) })
		if i < 0 {
			c.Options = slices.Clone(c.Options)
			out = append(out, c)
			continue
		}
		for _, opt := range c.Options {
			if !containsFold(out[i].Options, opt) {
				out[i].Options = append(out[i].Options, opt)
			}
		}
	}
	return out
}

// Lookup returns the effective config for key in category. Keys match
// case-insensitively.
func (d *Dictionary) Lookup(key, category string) (Config, bool) {
	for _, c := range d.Configs(category) {
		if strings.EqualFold(c.Key, key) {
			return c, true
		}
	}
	return Config{}, false
}

// CanonicalKey returns the configured spelling of key.
func (d *Dictionary) CanonicalKey(key string) (string, bool) {
	for _, k := range d.keys {
		if strings.EqualFold(k, strings.TrimSpace(key)) {
			return k, true
		}
	}
	return "", false
}

func containsFold(options []string, v string) bool {
	return slices.ContainsFunc(options, func(o string) bool { return strings.EqualFold(o, v) })
}
