package prompts

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Entry is the prompt configuration of one feature.
type Entry struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// Feature is an Entry together with its lookup key.
type Feature struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// The reference images arrive as image1 napkins, image2 a 6-inch plate, image3 a
// 9-inch plate and image4 a cutlery set.
var defaults = []struct {
	key   string
	entry Entry
}{
	{"product_main", Entry{
		Title:  "Product main image",
		Prompt: "Combine the napkins, the 6-inch plate, the 9-inch plate and the cutlery from the reference images into one tidy tableware set on a pure white background. Keep every item's shape, color and pattern unchanged, light the set evenly and frame it as an e-commerce main image.",
	}},
	{"product_display_1", Entry{
		Title:  "Product display 1",
		Prompt: "Arrange the items from the reference images as a neat flat lay seen from directly above: the 9-inch plate with the 6-inch plate stacked on it, the cutlery beside them and folded napkins at the side. Soft studio light, light neutral background, product details sharp.",
	}},
	{"product_display_2", Entry{
		Title:  "Product display 2",
		Prompt: "Show the items from the reference images at a 45-degree angle as a complete place setting, with the plates slightly overlapping and the cutlery and napkins in front. Preserve materials and printed patterns exactly, soft shadows, clean light background.",
	}},
	{"product_size", Entry{
		Title:  "Product size chart",
		Prompt: "Lay out each item from the reference images separately on a white background and mark its size with thin dimension lines: the 6-inch plate, the 9-inch plate, the napkin and the cutlery. Keep the items to scale with each other and add no decorations.",
	}},
	{"scene_display_1", Entry{
		Title:  "Scene display 1",
		Prompt: "Place the tableware set from the reference images on a wooden dining table in a bright home kitchen with natural daylight. Set the table for one meal with the plates, cutlery and napkins in use, keeping the products as the clear focus.",
	}},
	{"scene_display_2", Entry{
		Title:  "Scene display 2",
		Prompt: "Place the tableware set from the reference images on an outdoor picnic table at a party with warm evening light and a softly blurred background. The plates, cutlery and napkins must look exactly as in the references and stay in sharp focus.",
	}},
}

// Catalog resolves feature keys to prompts. Keys match case-insensitively.
type Catalog struct {
	entries map[string]Entry
	order   []string
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{entries: make(map[string]Entry, len(defaults))}
	for _, d := range defaults {
		c.set(d.key, d.entry)
	}
	return c
}

// Load returns the built-in catalog with the entries of the JSON file at path merged
// over it. An empty path yields the defaults.
func Load(path string) (*Catalog, error) {
	c := Default()
	path = strings.TrimSpace(path)
	if path == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("prompts: read %s: %w", path, err)
	}
	var overrides map[string]Entry
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("prompts: decode %s: %w", path, err)
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if normalizeKey(key) == "" {
			return nil, fmt.Errorf("prompts: %s: empty feature key", path)
		}
		c.set(key, overrides[key])
	}
	return c, nil
}

func (c *Catalog) set(key string, entry Entry) {
	norm := normalizeKey(key)
	if _, exists := c.entries[norm]; !exists {
		c.order = append(c.order, norm)
	}
	entry.Title = strings.TrimSpace(entry.Title)
	if entry.Title == "" {
		entry.Title = norm
	}
	entry.Prompt = strings.TrimSpace(entry.Prompt)
	c.entries[norm] = entry
}

// Has reports whether feature is configured.
func (c *Catalog) Has(feature string) bool {
	_, ok := c.entries[normalizeKey(feature)]
	return ok
}

// Prompt returns the prompt of feature, or "" when none is configured.
func (c *Catalog) Prompt(feature string) string {
	return c.entries[normalizeKey(feature)].Prompt
}

// Features lists the configured features, built-ins first.
func (c *Catalog) Features() []Feature {
	out := make([]Feature, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, Feature{Key: key, Title: c.entries[key].Title})
	}
	return out
}

func normalizeKey(key string) string {
	return cases.Fold().String(strings.TrimSpace(key))
}
