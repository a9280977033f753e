package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/remixer/internal/results"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

// SessionResults is a results.Collection persisted in Postgres under one
// session ID.
type SessionResults struct {
	store     Store
	sessionID string
}

func NewSessionResults(s Store, sessionID string) *SessionResults {
	return &SessionResults{store: s, sessionID: sessionID}
}

func (c *SessionResults) Append(ctx context.Context, r models.GeneratedResult) error {
	return c.store.InsertResult(ctx, c.sessionID, r)
}

func (c *SessionResults) Clear(ctx context.Context) error {
	_, err := c.store.DeleteResults(ctx, c.sessionID)
	return err
}

func (c *SessionResults) List(ctx context.Context) ([]models.GeneratedResult, error) {
	return c.store.ListResults(ctx, c.sessionID)
}

func (c *SessionResults) Get(ctx context.Context, id string) (models.GeneratedResult, error) {
	r, err := c.store.GetResult(ctx, c.sessionID, id)
	if errors.Is(err, ErrNotFound) {
		return models.GeneratedResult{}, results.ErrNotFound
	}
	return r, err
}

var _ results.Collection = (*SessionResults)(nil)
