package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/export"
	"github.com/kiranshivaraju/remixer/internal/media"
	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

const thumbnailSize = 256

// ExportOptions configures downloads.
type ExportOptions struct {
	Format      string
	ArchiveName string
}

type resultView struct {
	ID          string             `json:"id"`
	Preset      models.Preset      `json:"preset"`
	AspectRatio models.AspectRatio `json:"aspect_ratio"`
	MIMEType    string             `json:"mime_type"`
	Thumbnail   string             `json:"thumbnail,omitempty"`
	DownloadURL string             `json:"download_url"`
	CreatedAt   time.Time          `json:"created_at"`
}

func newResultView(sessionID string, r models.GeneratedResult) resultView {
	v := resultView{
		ID:          r.ID,
		Preset:      r.Preset,
		AspectRatio: r.AspectRatio,
		MIMEType:    r.Image.MIMEType,
		DownloadURL: fmt.Sprintf("/api/v1/sessions/%s/results/%s/download", sessionID, r.ID),
		CreatedAt:   r.CreatedAt.UTC(),
	}
	thumb, err := media.Thumbnail(r.Image, thumbnailSize)
	if err != nil {
		slog.Debug("thumbnail skipped", "result_id", r.ID, "error", err)
		return v
	}
	v.Thumbnail = media.DataURL(thumb)
	return v
}

// NewListResultsHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/results. Results are newest first.
func NewListResultsHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		list, err := s.Controller.Results().List(r.Context())
		if err != nil {
			internalError(w, r, "list results", err)
			return
		}
		views := make([]resultView, 0, len(list))
		for _, res := range list {
			views = append(views, newResultView(s.ID, res))
		}
		response.JSON(w, views)
	}
}

// NewClearResultsHandler returns an http.HandlerFunc for
// DELETE /api/v1/sessions/{sessionID}/results.
func NewClearResultsHandler(sessions Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		if err := s.Controller.Results().Clear(r.Context()); err != nil {
			internalError(w, r, "clear results", err)
			return
		}
		response.NoContent(w)
	}
}

// NewDownloadResultHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/results/{resultID}/download.
func NewDownloadResultHandler(sessions Sessions, opts ExportOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		res, err := s.Controller.Results().Get(r.Context(), chi.URLParam(r, "resultID"))
		if err != nil {
			if errors.Is(err, results.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "RESULT_NOT_FOUND", "Result not found", nil)
				return
			}
			internalError(w, r, "get result", err)
			return
		}

		entries, err := export.Convert([]export.Entry{{
			Filename: export.SingleFilename(res),
			MIMEType: res.Image.MIMEType,
			Data:     res.Image.Data,
		}}, opts.Format)
		if err != nil {
			internalError(w, r, "convert result", err)
			return
		}
		e := entries[0]
		response.Attachment(w, e.Filename, e.MIMEType, e.Data)
	}
}

// NewDownloadAllHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/download. The archive is streamed.
func NewDownloadAllHandler(sessions Sessions, opts ExportOptions) http.HandlerFunc {
	archiveName := opts.ArchiveName
	if archiveName == "" {
		archiveName = export.DefaultArchiveName
	}

	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}
		list, err := s.Controller.Results().List(r.Context())
		if err != nil {
			internalError(w, r, "list results", err)
			return
		}
		if len(list) == 0 {
			response.Error(w, http.StatusNotFound, "NO_RESULTS", "There are no results to download", nil)
			return
		}

		entries, err := export.Convert(export.Entries(list), opts.Format)
		if err != nil {
			internalError(w, r, "convert results", err)
			return
		}

		err = response.StreamAttachment(w, archiveName, "application/zip", func(dst io.Writer) error {
			return export.WriteZip(dst, entries)
		})
		if err != nil {
			slog.Error("write archive", "session_id", s.ID, "error", err)
			return
		}
		slog.Info("archive downloaded", "session_id", s.ID, "files", len(entries))
	}
}
