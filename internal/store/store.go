package store

import (
	"context"
	"errors"

	"github.com/kiranshivaraju/remixer/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
// Results are partitioned by session ID.
type Store interface {
	Ping(ctx context.Context) error

	InsertResult(ctx context.Context, sessionID string, r models.GeneratedResult) error
	ListResults(ctx context.Context, sessionID string) ([]models.GeneratedResult, error)
	GetResult(ctx context.Context, sessionID, id string) (models.GeneratedResult, error)
	DeleteResults(ctx context.Context, sessionID string) (int64, error)
}
