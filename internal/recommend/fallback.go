package recommend

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultGenre = "default"

//go:embed fallback.yaml
var fallbackYAML []byte

// Fallback holds the fixed suggestion lists, keyed by lower-case genre.
type Fallback struct {
	lists map[string][]Suggestion
}

// LoadFallback parses fallback lists. A "default" list is required.
func LoadFallback(data []byte) (*Fallback, error) {
	var raw map[string][]Suggestion
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse fallback yaml: %w", err)
	}
	lists := make(map[string][]Suggestion, len(raw))
	for k, v := range raw {
		lists[strings.ToLower(strings.TrimSpace(k))] = v
	}
	if len(lists[defaultGenre]) == 0 {
		return nil, fmt.Errorf("fallback yaml has no %q list", defaultGenre)
	}
	return &Fallback{lists: lists}, nil
}

// DefaultFallback returns the embedded lists.
func DefaultFallback() *Fallback {
	f, err := LoadFallback(fallbackYAML)
	if err != nil {
		panic(err)
	}
	return f
}

// For returns the list for genre, or the default list when genre has none.
// The returned slice is a copy.
func (f *Fallback) For(genre string) []Suggestion {
	if l, ok := f.lists[strings.ToLower(strings.TrimSpace(genre))]; ok && len(l) > 0 {
		return slices.Clone(l)
	}
	return slices.Clone(f.lists[defaultGenre])
}

// Key maps a genre to the list For would pick.
func (f *Fallback) Key(genre string) string {
	k := strings.ToLower(strings.TrimSpace(genre))
	if len(f.lists[k]) > 0 {
		return k
	}
	return defaultGenre
}

// PreferredGenre is the most common category among books, compared
// case-insensitively. Ties go to the category seen first. It returns ""
// for an empty collection.
func PreferredGenre(books []BookSummary) string {
	counts := make(map[string]int)
	var order []string
	for _, b := range books {
		k := strings.ToLower(strings.TrimSpace(b.Category))
		if k == "" {
			continue
		}
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}
	best := ""
	for _, k := range order {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}
