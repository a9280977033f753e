// Package handler implements the HTTP endpoints of the remix API.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/preset"
	"github.com/kiranshivaraju/remixer/internal/session"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

// Sessions is the part of session.Manager the handlers depend on.
type Sessions interface {
	Create() *session.Session
	Get(id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

// Catalog is the part of preset.Catalog the handlers depend on.
type Catalog interface {
	Filter(f preset.Filter) []models.Preset
	Tags() []string
	Resolve(ids []int) ([]models.Preset, error)
}

// lookupSession resolves the {sessionID} URL parameter, writing a 404 when
// the session does not exist.
func lookupSession(w http.ResponseWriter, r *http.Request, sessions Sessions) (*session.Session, bool) {
	s, err := sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
			return nil, false
		}
		internalError(w, r, "lookup session", err)
		return nil, false
	}
	return s, true
}

func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "path", r.URL.Path)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}
