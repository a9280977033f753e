package handler

import (
	"net/http"

	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/preset"
)

// NewListPresetsHandler returns an http.HandlerFunc for GET /api/v1/presets.
// ?q= searches name, prompt and tags; repeated ?tag= keeps presets carrying
// any of the given tags.
func NewListPresetsHandler(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		response.JSON(w, c.Filter(preset.Filter{
			Search: q.Get("q"),
			Tags:   q["tag"],
		}))
	}
}

// NewPresetTagsHandler returns an http.HandlerFunc for GET /api/v1/presets/tags.
func NewPresetTagsHandler(c Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		tags := c.Tags()
		if tags == nil {
			tags = []string{}
		}
		response.JSON(w, tags)
	}
}
