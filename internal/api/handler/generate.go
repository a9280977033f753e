package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/internal/preset"
	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

type batchResponse struct {
	Started bool        `json:"started"`
	State   batch.State `json:"state"`
}

// writeBatch answers a start request. A request the controller ignores
// (busy, no image, no presets) is not an error: it gets 200 with
// started=false and the current state.
func writeBatch(w http.ResponseWriter, started bool, state batch.State) {
	resp := batchResponse{Started: started, State: state}
	if started {
		response.Accepted(w, resp)
		return
	}
	response.JSON(w, resp)
}

// NewGenerateHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/generate.
func NewGenerateHandler(sessions Sessions, catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		var req struct {
			PresetIDs   []int  `json:"preset_ids"`
			AspectRatio string `json:"aspect_ratio"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		ratio := s.AspectRatio()
		if req.AspectRatio != "" {
			parsed, err := models.ParseAspectRatio(req.AspectRatio)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_ASPECT_RATIO", err.Error(),
					map[string]any{"supported": models.AspectRatios})
				return
			}
			ratio = parsed
		}

		presets, err := catalog.Resolve(req.PresetIDs)
		if err != nil {
			if errors.Is(err, preset.ErrUnknownPreset) {
				response.Error(w, http.StatusBadRequest, "UNKNOWN_PRESET", err.Error(), nil)
				return
			}
			internalError(w, r, "resolve presets", err)
			return
		}

		s.SetAspectRatio(ratio)
		started := s.Controller.StartBatch(s.Source(), presets, ratio)
		writeBatch(w, started, s.Controller.Snapshot())
	}
}

// NewRegenerateHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/results/{resultID}/regenerate.
func NewRegenerateHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		prev, err := s.Controller.Results().Get(r.Context(), chi.URLParam(r, "resultID"))
		if err != nil {
			if errors.Is(err, results.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RESULT_NOT_FOUND", "Result not found", nil)
				return
			}
			internalError(w, r, "get result", err)
			return
		}

		started := s.Controller.Regenerate(prev)
		writeBatch(w, started, s.Controller.Snapshot())
	}
}

// NewCancelHandler returns an http.HandlerFunc for
// POST /api/v1/sessions/{sessionID}/cancel. Cancelling an idle session is a no-op.
func NewCancelHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		s.Controller.Cancel()
		response.JSON(w, s.Controller.Snapshot())
	}
}
