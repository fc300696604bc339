/*
Package game
File: catalog.go
Description:
    The static, ordered dessert catalog and its loaders.
    It handles reading 'bakery.yaml', validating the item ordering once at
    construction, and the threshold lookup that picks the current dessert.
*/

package game

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultShareText is the share template used when the bakery file has none.
const DefaultShareText = "I have clicked %d desserts for a total of $%d #AndroidDessertClicker"

// Catalog is an immutable, validated list of items ordered by strictly
// increasing ActivationThreshold, starting at 0.
type Catalog struct {
	items []CatalogItem
}

// NewCatalog copies and validates items.
func NewCatalog(items []CatalogItem) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	seen := make(map[string]int, len(items))
	for i, it := range items {
		if it.UnitPrice < 0 || it.ActivationThreshold < 0 {
			return nil, fmt.Errorf("item %d (%q): %w", i, it.Key, ErrNegativeValue)
		}
		if i == 0 && it.ActivationThreshold != 0 {
			return nil, fmt.Errorf("item 0 (%q) has threshold %d: %w", it.Key, it.ActivationThreshold, ErrFirstThreshold)
		}
		if i > 0 && it.ActivationThreshold <= items[i-1].ActivationThreshold {
			return nil, fmt.Errorf("item %d (%q) threshold %d after %d: %w",
				i, it.Key, it.ActivationThreshold, items[i-1].ActivationThreshold, ErrThresholdOrder)
		}
		if it.Key != "" {
			if prev, dup := seen[it.Key]; dup {
				return nil, fmt.Errorf("items %d and %d share key %q: %w", prev, i, it.Key, ErrDuplicateKey)
			}
			seen[it.Key] = i
		}
	}

	own := make([]CatalogItem, len(items))
	copy(own, items)
	return &Catalog{items: own}, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// ItemAt returns the item at index, or ErrOutOfRange.
func (c *Catalog) ItemAt(index int) (CatalogItem, error) {
	if index < 0 || index >= len(c.items) {
		return CatalogItem{}, fmt.Errorf("index %d of %d: %w", index, len(c.items), ErrOutOfRange)
	}
	return c.items[index], nil
}

// Items returns a copy of the catalog contents.
func (c *Catalog) Items() []CatalogItem {
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// ItemByKey is a helper to retrieve an item by its Key.
// Returns false if not found.
func (c *Catalog) ItemByKey(key string) (CatalogItem, bool) {
	for _, it := range c.items {
		if it.Key == key {
			return it, true
		}
	}
	return CatalogItem{}, false
}

// IndexFor returns the largest index whose ActivationThreshold <= unitsSold.
// Thresholds are sorted, so this is a binary search for the first threshold
// that is NOT met. Index 0 always qualifies since its threshold is 0; past the
// last threshold the result stays pinned at the last index.
func (c *Catalog) IndexFor(unitsSold int64) int {
	firstUnmet := sort.Search(len(c.items), func(i int) bool {
		return c.items[i].ActivationThreshold > unitsSold
	})
	if firstUnmet == 0 {
		return 0
	}
	return firstUnmet - 1
}

// ParseBakery decodes a bakery YAML document and validates its catalog.
func ParseBakery(data []byte) (Bakery, *Catalog, error) {
	var b Bakery
	if err := yaml.Unmarshal(data, &b); err != nil {
		return Bakery{}, nil, fmt.Errorf("decode bakery: %w", err)
	}
	if b.ShareText == "" {
		b.ShareText = DefaultShareText
	}
	if err := ValidateShareTemplate(b.ShareText); err != nil {
		return Bakery{}, nil, fmt.Errorf("bakery %q: %w", b.Name, err)
	}

	cat, err := NewCatalog(b.Items)
	if err != nil {
		return Bakery{}, nil, fmt.Errorf("bakery %q: %w", b.Name, err)
	}
	return b, cat, nil
}

// LoadBakery reads a bakery file from disk.
// An empty path yields the built-in DefaultBakery.
func LoadBakery(path string) (Bakery, *Catalog, error) {
	if path == "" {
		b := DefaultBakery()
		cat, err := NewCatalog(b.Items)
		return b, cat, err
	}

	// 1. Read the YAML file
	f, err := os.ReadFile(path)
	if err != nil {
		return Bakery{}, nil, fmt.Errorf("read bakery: %w", err)
	}

	// 2. Unmarshal and validate
	return ParseBakery(f)
}

// DefaultBakery is the built-in dessert lineup, cupcake through oreo.
func DefaultBakery() Bakery {
	return Bakery{
		Name:      "Dessert Clicker",
		ShareText: DefaultShareText,
		Items: []CatalogItem{
			{Key: "cupcake", Name: "Cupcake", ImageRef: "cupcake.png", UnitPrice: 5, ActivationThreshold: 0},
			{Key: "donut", Name: "Donut", ImageRef: "donut.png", UnitPrice: 10, ActivationThreshold: 5},
			{Key: "eclair", Name: "Eclair", ImageRef: "eclair.png", UnitPrice: 15, ActivationThreshold: 20},
			{Key: "froyo", Name: "Froyo", ImageRef: "froyo.png", UnitPrice: 30, ActivationThreshold: 50},
			{Key: "gingerbread", Name: "Gingerbread", ImageRef: "gingerbread.png", UnitPrice: 50, ActivationThreshold: 100},
			{Key: "honeycomb", Name: "Honeycomb", ImageRef: "honeycomb.png", UnitPrice: 100, ActivationThreshold: 200},
			{Key: "icecreamsandwich", Name: "Ice Cream Sandwich", ImageRef: "icecreamsandwich.png", UnitPrice: 500, ActivationThreshold: 500},
			{Key: "jellybean", Name: "Jelly Bean", ImageRef: "jellybean.png", UnitPrice: 1000, ActivationThreshold: 1000},
			{Key: "kitkat", Name: "KitKat", ImageRef: "kitkat.png", UnitPrice: 2000, ActivationThreshold: 2000},
			{Key: "lollipop", Name: "Lollipop", ImageRef: "lollipop.png", UnitPrice: 3000, ActivationThreshold: 4000},
			{Key: "marshmallow", Name: "Marshmallow", ImageRef: "marshmallow.png", UnitPrice: 4000, ActivationThreshold: 8000},
			{Key: "nougat", Name: "Nougat", ImageRef: "nougat.png", UnitPrice: 5000, ActivationThreshold: 16000},
			{Key: "oreo", Name: "Oreo", ImageRef: "oreo.png", UnitPrice: 6000, ActivationThreshold: 20000},
		},
	}
}
