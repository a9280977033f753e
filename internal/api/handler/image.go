package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/kiranshivaraju/remixer/internal/api/response"
	"github.com/kiranshivaraju/remixer/internal/media"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

// UploadLimits bounds what PUT /image accepts.
type UploadLimits struct {
	MaxBytes     int64
	MaxDimension int
}

// NewUploadImageHandler returns an http.HandlerFunc for
// PUT /api/v1/sessions/{sessionID}/image. The body is either a multipart form
// with an "image" file field, a JSON object {"data_url": "data:image/...;base64,..."},
// or the raw image bytes.
func NewUploadImageHandler(sessions Sessions, limits UploadLimits) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBytes)
		img, err := readUpload(r, limits.MaxBytes)
		if err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				response.Error(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE",
					"Image exceeds the upload size limit", map[string]int64{"max_bytes": limits.MaxBytes})
			case errors.Is(err, media.ErrNotImage):
				response.Error(w, http.StatusUnsupportedMediaType, "INVALID_IMAGE", err.Error(), nil)
			default:
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			}
			return
		}

		img, err = media.Normalize(img, limits.MaxDimension)
		if err != nil {
			response.Error(w, http.StatusUnsupportedMediaType, "INVALID_IMAGE", err.Error(), nil)
			return
		}

		s.SetSource(img)
		slog.Info("source image uploaded", "session_id", s.ID, "mime_type", img.MIMEType, "bytes", len(img.Data))
		response.JSON(w, newSessionView(s))
	}
}

func readUpload(r *http.Request, maxBytes int64) (models.Image, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return models.Image{}, err
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			return models.Image{}, errors.New("multipart field \"image\" is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return models.Image{}, err
		}
		return media.FromBytes(data, header.Header.Get("Content-Type"))

	case "application/json":
		var req struct {
			DataURL string `json:"data_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return models.Image{}, err
			}
			return models.Image{}, errors.New("invalid JSON body")
		}
		if req.DataURL == "" {
			return models.Image{}, errors.New("data_url is required")
		}
		return media.FromDataURL(req.DataURL)

	default:
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return models.Image{}, err
		}
		return media.FromBytes(data, mediaType)
	}
}
