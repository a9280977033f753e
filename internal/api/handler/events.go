package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kiranshivaraju/remixer/internal/cache"
	"github.com/kiranshivaraju/remixer/internal/events"
)

const writeWait = 10 * time.Second

// NewEventsHandler returns an http.HandlerFunc for
// GET /api/v1/sessions/{sessionID}/events. After the upgrade the client gets
// a snapshot of the batch state followed by every job and batch event.
//
// Browsers may connect from the server's own host or from one of
// allowedOrigins ("*" allows any).
func NewEventsHandler(sessions Sessions, c cache.Cache, allowedOrigins []string) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookupSession(w, r, sessions)
		if !ok {
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			slog.Warn("websocket upgrade failed", "session_id", s.ID, "error", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Read pump: the client never sends anything useful, but reading is
		// what surfaces its close frame.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
						slog.Debug("websocket closed unexpectedly", "session_id", s.ID, "error", err)
					}
					return
				}
			}
		}()

		send := func(msg []byte) error {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			return conn.WriteMessage(websocket.TextMessage, msg)
		}
		snapshot := func() ([]byte, error) {
			return events.Snapshot(s.ID, s.Controller.Snapshot())
		}

		slog.Info("event stream opened", "session_id", s.ID)
		err = events.Stream(ctx, c, s.ID, snapshot, send)
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("event stream ended", "session_id", s.ID, "error", err)
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), origins whose host matches the request host, and listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimSuffix(strings.TrimSpace(o), "/"))] = true
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}
