// Package results holds the Result Collection: completed remixes, newest first.
package results

import (
	"context"
	"errors"
	"sync"

	"github.com/kiranshivaraju/remixer/pkg/models"
)

var ErrNotFound = errors.New("result not found")

// Collection is an append-only, newest-first list of generated results.
// There is no deduplication: regenerating a preset adds a new entry.
type Collection interface {
	Append(ctx context.Context, r models.GeneratedResult) error
	Clear(ctx context.Context) error
	List(ctx context.Context) ([]models.GeneratedResult, error)
	Get(ctx context.Context, id string) (models.GeneratedResult, error)
}

// Memory is an in-process Collection. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	items []models.GeneratedResult // insertion order; List reverses
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(_ context.Context, r models.GeneratedResult) error {
	m.mu.Lock()
	m.items = append(m.items, r)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context) ([]models.GeneratedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.GeneratedResult, len(m.items))
	for i, r := range m.items {
		out[len(m.items)-1-i] = r
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (models.GeneratedResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.items {
		if r.ID == id {
			return r, nil
		}
	}
	return models.GeneratedResult{}, ErrNotFound
}

var _ Collection = (*Memory)(nil)
