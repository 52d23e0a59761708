package judge

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Reference is a curated ground-truth product for one category and suite.
type Reference struct {
	Category    string `json:"category"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Slug is the last path segment of the reference URL.
func (r Reference) Slug() string {
	trimmed := strings.TrimRight(r.URL, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// Name is the slug with hyphens turned into spaces.
func (r Reference) Name() string {
	return strings.ReplaceAll(r.Slug(), "-", " ")
}

type categoryEntry struct {
	Items []Reference `json:"items"`
}

// Catalog maps category names to ordered reference products; suite N uses items[N-1].
type Catalog struct {
	categories map[string]categoryEntry
}

func LoadCatalog(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read reference catalog %s", path)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var raw map[string]categoryEntry
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, errors.Wrap(err, "parse reference catalog")
	}
	return &Catalog{categories: raw}, nil
}

// Categories lists catalog keys in sorted order.
func (c *Catalog) Categories() []string {
	keys := make([]string, 0, len(c.categories))
	for k := range c.categories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func normalizeCategory(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.ToLower(s))
}

// ResolveCategory finds the catalog key for category: exact first, then
// normalized containment in either direction ("CompactPCI" matches
// "CompactPCI Serial"). Keys are tried in sorted order.
func (c *Catalog) ResolveCategory(category string) (string, bool) {
	if c == nil {
		return "", false
	}
	if _, ok := c.categories[category]; ok {
		return category, true
	}

	want := normalizeCategory(category)
	if want == "" {
		return "", false
	}
	for _, key := range c.Categories() {
		nk := normalizeCategory(key)
		if strings.Contains(nk, want) || strings.Contains(want, nk) {
			return key, true
		}
	}
	return "", false
}

// Lookup returns the reference product for category and suite (1-based).
func (c *Catalog) Lookup(category string, suite int) (Reference, error) {
	key, ok := c.ResolveCategory(category)
	if !ok {
		return Reference{}, errors.Wrapf(ErrNoReference, "category %q not in catalog", category)
	}

	items := c.categories[key].Items
	idx := suite - 1
	if idx < 0 || idx >= len(items) {
		return Reference{}, errors.Wrapf(ErrNoReference, "suite %d not found for %s", suite, key)
	}
	return items[idx], nil
}
