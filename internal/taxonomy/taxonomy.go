// Package taxonomy holds the static category tree and answers slug
// membership and lookup questions against it.
package taxonomy

import (
	"bytes"
	_ "embed"
	"io"
	"os"

	"github.com/go-faster/errors"
	"gopkg.in/yaml.v3"
)

//go:embed tree.yaml
var defaultTree []byte

var (
	// ErrEmptySlug is returned when a node has no slug.
	ErrEmptySlug = errors.New("category slug is empty")
	// ErrDuplicateSlug is returned when two nodes share a slug.
	ErrDuplicateSlug = errors.New("duplicate category slug")
)

// CategoryNode is one node of the category tree.
type CategoryNode struct {
	ID        string         `yaml:"id"`
	Label     string         `yaml:"label"`
	Slug      string         `yaml:"slug"`
	Highlight bool           `yaml:"highlight,omitempty"`
	Children  []CategoryNode `yaml:"children,omitempty"`
}

// Registry is an immutable view of the category tree. Membership tests use a
// flattened slug set; FindNode walks the tree.
type Registry struct {
	roots   []CategoryNode
	slugs   map[string]struct{}
	parents map[string]string
}

// New builds a Registry from the given roots. Slugs must be non-empty and
// unique across the whole tree.
func New(roots []CategoryNode) (*Registry, error) {
	r := &Registry{
		roots:   roots,
		slugs:   make(map[string]struct{}),
		parents: make(map[string]string),
	}
	for i := range roots {
		if err := r.index(&roots[i], ""); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) index(n *CategoryNode, parent string) error {
	if n.Slug == "" {
		return errors.Wrapf(ErrEmptySlug, "node %q", n.Label)
	}
	if _, ok := r.slugs[n.Slug]; ok {
		return errors.Wrapf(ErrDuplicateSlug, "%q", n.Slug)
	}
	r.slugs[n.Slug] = struct{}{}
	if parent != "" {
		r.parents[n.Slug] = parent
	}
	for i := range n.Children {
		if err := r.index(&n.Children[i], n.Slug); err != nil {
			return err
		}
	}
	return nil
}

// Load decodes a YAML category tree.
func Load(rd io.Reader) (*Registry, error) {
	var roots []CategoryNode
	if err := yaml.NewDecoder(rd).Decode(&roots); err != nil {
		return nil, errors.Wrap(err, "decode category tree")
	}
	return New(roots)
}

// LoadFile decodes the YAML category tree stored at path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open category tree")
	}
	defer func() { _ = f.Close() }()

	return Load(f)
}

// Default returns the registry built from the embedded category tree.
func Default() *Registry {
	r, err := Load(bytes.NewReader(defaultTree))
	if err != nil {
		panic(errors.Wrap(err, "embedded category tree"))
	}
	return r
}

// IsValidSlug reports whether slug names any node in the tree.
func (r *Registry) IsValidSlug(slug string) bool {
	_, ok := r.slugs[slug]
	return ok
}

// FindNode returns the node with the given slug using a pre-order walk.
func (r *Registry) FindNode(slug string) (*CategoryNode, bool) {
	for i := range r.roots {
		if n := findNode(&r.roots[i], slug); n != nil {
			return n, true
		}
	}
	return nil, false
}

func findNode(n *CategoryNode, slug string) *CategoryNode {
	if n.Slug == slug {
		return n
	}
	for i := range n.Children {
		if found := findNode(&n.Children[i], slug); found != nil {
			return found
		}
	}
	return nil
}

// Path returns the slugs from the root down to slug, inclusive. It returns
// nil for unknown slugs.
func (r *Registry) Path(slug string) []string {
	if !r.IsValidSlug(slug) {
		return nil
	}
	path := []string{slug}
	for p, ok := r.parents[slug]; ok; p, ok = r.parents[p] {
		path = append([]string{p}, path...)
	}
	return path
}

// Roots returns the top-level categories.
func (r *Registry) Roots() []CategoryNode {
	return r.roots
}

// Len returns the number of nodes in the tree.
func (r *Registry) Len() int {
	return len(r.slugs)
}
