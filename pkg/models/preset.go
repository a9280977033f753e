package models

// Preset is a named transformation applied to the source image. Presets are
// loaded once at startup and never mutated.
type Preset struct {
	ID     int      `json:"id"     yaml:"id"`
	Name   string   `json:"name"   yaml:"name"`
	Prompt string   `json:"prompt" yaml:"prompt"`
	Tags   []string `json:"tags"   yaml:"tags"`
}
