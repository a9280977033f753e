package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/kiranshivaraju/remixer/internal/api/middleware"
	"github.com/kiranshivaraju/remixer/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	ListPresets http.HandlerFunc
	PresetTags  http.HandlerFunc

	CreateSession http.HandlerFunc
	GetSession    http.HandlerFunc
	DeleteSession http.HandlerFunc
	UploadImage   http.HandlerFunc

	Generate   http.HandlerFunc
	Cancel     http.HandlerFunc
	Regenerate http.HandlerFunc

	ListResults    http.HandlerFunc
	ClearResults   http.HandlerFunc
	DownloadResult http.HandlerFunc
	DownloadAll    http.HandlerFunc

	Events http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Get("/api/v1/presets", orNotImplemented(deps.ListPresets))
		r.Get("/api/v1/presets/tags", orNotImplemented(deps.PresetTags))

		r.Post("/api/v1/sessions", orNotImplemented(deps.CreateSession))

		r.Route("/api/v1/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", orNotImplemented(deps.GetSession))
			r.Delete("/", orNotImplemented(deps.DeleteSession))
			r.Put("/image", orNotImplemented(deps.UploadImage))

			// Only the calls that reach the image API are rate limited.
			r.With(rateLimited(deps.RateLimit)).Post("/generate", orNotImplemented(deps.Generate))
			r.With(rateLimited(deps.RateLimit)).Post("/results/{resultID}/regenerate", orNotImplemented(deps.Regenerate))
			r.Post("/cancel", orNotImplemented(deps.Cancel))

			r.Get("/results", orNotImplemented(deps.ListResults))
			r.Delete("/results", orNotImplemented(deps.ClearResults))
			r.Get("/results/{resultID}/download", orNotImplemented(deps.DownloadResult))
			r.Get("/download", orNotImplemented(deps.DownloadAll))

			r.Get("/events", orNotImplemented(deps.Events))
		})
	})

	return r
}

func rateLimited(rl *mw.RateLimit) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Limit
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
