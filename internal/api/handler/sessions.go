package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/internal/media"
	"github.com/kiranshivaraju/remixer/internal/session"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

type sessionView struct {
	ID          string             `json:"id"`
	AspectRatio models.AspectRatio `json:"aspect_ratio"`
	HasImage    bool               `json:"has_image"`
	Image       *imageView         `json:"image,omitempty"`
	State       batch.State        `json:"state"`
	CreatedAt   time.Time          `json:"created_at"`
}

type imageView struct {
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

func newSessionView(s *session.Session) sessionView {
	v := sessionView{
		ID:          s.ID,
		AspectRatio: s.AspectRatio(),
		State:       s.Controller.Snapshot(),
		CreatedAt:   s.CreatedAt.UTC(),
	}
	if src := s.Source(); !src.Empty() {
		v.HasImage = true
		v.Image = newImageView(src)
	}
	return v
}

func newImageView(img models.Image) *imageView {
	v := &imageView{MIMEType: img.MIMEType}
	if w, h, err := media.Dimensions(img); err == nil {
		v.Width, v.Height = w, h
	}
	return v
}

// NewCreateSessionHandler returns an http.HandlerFunc for POST /api/v1/sessions.
func NewCreateSessionHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.Created(w, newSessionView(sessions.Create()))
	}
}

// NewGetSessionHandler returns an http.HandlerFunc for GET /api/v1/sessions/{sessionID}.
func NewGetSessionHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		response.JSON(w, newSessionView(s))
	}
}

// NewDeleteSessionHandler returns an http.HandlerFunc for DELETE /api/v1/sessions/{sessionID}.
// A running batch is cancelled and the session's results are dropped.
func NewDeleteSessionHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := sessions.Delete(r.Context(), chi.URLParam(r, "sessionID"))
		switch {
		case errors.Is(err, session.ErrNotFound):
			response.Error(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil)
		case err != nil:
			internalError(w, r, "delete session", err)
		default:
			response.NoContent(w)
		}
	}
}
