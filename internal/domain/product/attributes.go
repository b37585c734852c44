package product

import (
	"slices"
	"strings"
)

// Well-known attribute keys.
const (
	KeyCategory = "Category"
	KeyFabric   = "Fabric"
	KeyOccasion = "Occasion"
	KeyColor    = "Color"
	KeyWorkType = "Work Type"
)

// Attributes holds open-ended product attributes keyed by canonical
// attribute key. A key may carry several values (e.g. multiple occasions).
type Attributes map[string][]string

// Add appends value under key, skipping exact duplicates.
func (a Attributes) Add(key, value string) {
	if slices.Contains(a[key], value) {
		return
	}
	a[key] = append(a[key], value)
}

// Values returns all values for key.
func (a Attributes) Values(key string) []string {
	return a[key]
}

// First returns the first value for key or an empty string.
func (a Attributes) First(key string) string {
	if v := a[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has reports whether key carries exactly value.
func (a Attributes) Has(key, value string) bool {
	return slices.Contains(a[key], value)
}

// Keys returns attribute keys in sorted order, Category first.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y string) int {
		switch {
		case x == y:
			return 0
		case x == KeyCategory:
			return -1
		case y == KeyCategory:
			return 1
		default:
			return strings.Compare(x, y)
		}
	})
	return keys
}

// Tags flattens the attributes into their tag encoding.
func (a Attributes) Tags() []Tag {
	var tags []Tag
	for _, k := range a.Keys() {
		for _, v := range a[k] {
			tags = append(tags, Tag{Key: k, Value: v})
		}
	}
	return tags
}

// Clone returns a deep copy.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		out[k] = slices.Clone(v)
	}
	return out
}

// Tag is a single attribute in its "Key:Value" wire form.
type Tag struct {
	Key   string
	Value string
}

func (t Tag) String() string {
	return t.Key + ":" + t.Value
}

// ParseTag splits s on its first colon. Values may themselves contain colons.
func ParseTag(s string) (Tag, bool) {
	key, value, ok := strings.Cut(s, ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return Tag{}, false
	}
	return Tag{Key: key, Value: strings.TrimSpace(value)}, true
}

// AttributesFromTags decodes tag strings, silently skipping malformed ones.
func AttributesFromTags(tags []string) Attributes {
	a := make(Attributes)
	for _, s := range tags {
		if t, ok := ParseTag(s); ok {
			a.Add(t.Key, t.Value)
		}
	}
	return a
}
