// Package preset holds the read-only catalog of transformation presets.
package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kiranshivaraju/remixer/pkg/models"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtin []byte

var ErrUnknownPreset = errors.New("unknown preset")

// Catalog is an immutable, ordered list of presets plus the distinct tags
// they use. Zero value is an empty catalog.
type Catalog struct {
	presets []models.Preset
	byID    map[int]int
	tags    []string
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Load reads a YAML catalog from path. An empty path yields the builtin catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML list of presets and validates it.
func Parse(data []byte) (*Catalog, error) {
	var presets []models.Preset
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	return New(presets)
}

// New builds a catalog from presets, rejecting duplicate IDs and empty prompts.
func New(presets []models.Preset) (*Catalog, error) {
	c := &Catalog{
		presets: make([]models.Preset, 0, len(presets)),
		byID:    make(map[int]int, len(presets)),
	}
	seenTag := make(map[string]bool)

	for _, p := range presets {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate preset id %d", p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("preset %d: name is required", p.ID)
		}
		if strings.TrimSpace(p.Prompt) == "" {
			return nil, fmt.Errorf("preset %d: prompt is required", p.ID)
		}
		p.Tags = append([]string(nil), p.Tags...)
		c.byID[p.ID] = len(c.presets)
		c.presets = append(c.presets, p)

		for _, t := range p.Tags {
			if !seenTag[t] {
				seenTag[t] = true
				c.tags = append(c.tags, t)
			}
		}
	}
	return c, nil
}

// All returns every preset in catalog order. The slice is a copy.
func (c *Catalog) All() []models.Preset {
	return append([]models.Preset(nil), c.presets...)
}

// Tags returns the distinct tags in first-seen order.
func (c *Catalog) Tags() []string {
	return append([]string(nil), c.tags...)
}

// Len returns the number of presets.
func (c *Catalog) Len() int { return len(c.presets) }

// Get looks up a preset by ID.
func (c *Catalog) Get(id int) (models.Preset, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Preset{}, false
	}
	return c.presets[i], true
}

// Resolve maps IDs to presets, keeping the caller's order and dropping
// repeated IDs (selection has set semantics).
func (c *Catalog) Resolve(ids []int) ([]models.Preset, error) {
	out := make([]models.Preset, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		p, ok := c.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownPreset, id)
		}
		out = append(out, p)
	}
	return out, nil
}
