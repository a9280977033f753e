package preset

import (
	"strings"

	"github.com/kiranshivaraju/remixer/pkg/models"
)

// Filter narrows the catalog for the preset picker.
type Filter struct {
	// Search matches case-insensitively against name, prompt and tags.
	Search string
	// Tags keeps presets carrying at least one of them. Empty means no tag filter.
	Tags []string
}

// Filter returns the presets matching f, in catalog order. Never nil.
func (c *Catalog) Filter(f Filter) []models.Preset {
	term := strings.ToLower(strings.TrimSpace(f.Search))
	active := make(map[string]bool, len(f.Tags))
	for _, t := range f.Tags {
		if t = strings.TrimSpace(t); t != "" {
			active[t] = true
		}
	}

	out := []models.Preset{}
	for _, p := range c.presets {
		if matchesSearch(p, term) && matchesTags(p, active) {
			out = append(out, p)
		}
	}
	return out
}

func matchesSearch(p models.Preset, term string) bool {
	if term == "" {
		return true
	}
	if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.Prompt), term) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func matchesTags(p models.Preset, active map[string]bool) bool {
	if len(active) == 0 {
		return true
	}
	for _, t := range p.Tags {
		if active[t] {
			return true
		}
	}
	return false
}
