package middleware

import (
	"net/http"
	"strings"

	"github.com/kiranshivaraju/remixer/internal/api/response"
	"golang.org/x/crypto/bcrypt"
)

const clientIDLen = 8

// Auth checks a shared access token against a bcrypt hash. A zero Auth, or
// one built with an empty hash, lets every request through.
type Auth struct {
	hash []byte
}

// NewAuth creates a new Auth middleware from a bcrypt hash of the access token.
func NewAuth(tokenHash string) *Auth {
	return &Auth{hash: []byte(tokenHash)}
}

// Enabled reports whether requests must carry a token.
func (a *Auth) Enabled() bool {
	return a != nil && len(a.hash) > 0
}

// Authenticate validates the Bearer token (or the access_token query
// parameter, which browsers need for WebSocket upgrades) and sets the client
// ID in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		if bcrypt.CompareHashAndPassword(a.hash, []byte(token)) != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid access token", nil)
			return
		}

		id := token
		if len(id) > clientIDLen {
			id = id[:clientIDLen]
		}
		next.ServeHTTP(w, r.WithContext(SetClientID(r.Context(), id)))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
