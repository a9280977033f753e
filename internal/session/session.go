// Package session maps browser sessions to their own batch controller and
// source image.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/remixer/internal/batch"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

var ErrNotFound = errors.New("session not found")

// Session is one user's workspace: a controller plus the uploaded photo and
// the selected aspect ratio.
type Session struct {
	ID         string
	Controller *batch.Controller
	CreatedAt  time.Time

	mu         sync.Mutex
	source     models.Image
	ratio      models.AspectRatio
	lastActive time.Time
}

func (s *Session) Source() models.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Session) SetSource(img models.Image) {
	s.mu.Lock()
	s.source = img
	s.mu.Unlock()
}

func (s *Session) AspectRatio() models.AspectRatio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ratio
}

func (s *Session) SetAspectRatio(r models.AspectRatio) {
	s.mu.Lock()
	s.ratio = r
	s.mu.Unlock()
}

func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

// ControllerFactory builds the controller for a new session.
type ControllerFactory func(sessionID string) *batch.Controller

type Options struct {
	// IdleTTL is how long an idle session survives. Zero disables reaping.
	IdleTTL time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

// Manager owns all live sessions. Safe for concurrent use.
type Manager struct {
	newController ControllerFactory
	idleTTL       time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(factory ControllerFactory, opts Options) *Manager {
	m := &Manager{
		newController: factory,
		idleTTL:       opts.IdleTTL,
		logger:        opts.Logger,
		now:           opts.Now,
		sessions:      make(map[string]*Session),
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Create starts a new session with the default aspect ratio.
func (m *Manager) Create() *Session {
	id := uuid.NewString()
	now := m.now()
	s := &Session{
		ID:         id,
		Controller: m.newController(id),
		CreatedAt:  now,
		ratio:      models.DefaultAspectRatio,
		lastActive: now,
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", id)
	return s
}

// Get returns the session and marks it active.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Delete cancels any running batch and drops the session with its results.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.release(ctx, s)
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Reap removes sessions idle for longer than the TTL. Sessions with a
// running batch are kept regardless of idle time.
func (m *Manager) Reap(ctx context.Context) int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) && !s.Controller.Busy() {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.release(ctx, s)
	}
	if len(expired) > 0 {
		m.logger.Info("idle sessions reaped", "count", len(expired), "live", m.Len())
	}
	return len(expired)
}

// Run reaps idle sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(ctx)
		}
	}
}

func (m *Manager) release(ctx context.Context, s *Session) {
	s.Controller.Cancel()
	if err := s.Controller.Results().Clear(ctx); err != nil {
		m.logger.Warn("clear session results", "session_id", s.ID, "error", err)
	}
}
