package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/remixer/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const resultColumns = `id, preset_id, preset_name, preset_prompt, preset_tags, aspect_ratio,
	image_mime, image_data, original_mime, original_data, created_at`

func (s *PostgresStore) InsertResult(ctx context.Context, sessionID string, r models.GeneratedResult) error {
	tags := r.Preset.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO remix_results (session_id, id, preset_id, preset_name, preset_prompt, preset_tags,
			aspect_ratio, image_mime, image_data, original_mime, original_data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		sessionID, r.ID, r.Preset.ID, r.Preset.Name, r.Preset.Prompt, tags,
		string(r.AspectRatio), r.Image.MIMEType, r.Image.Data,
		r.OriginalImage.MIMEType, r.OriginalImage.Data, r.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// ListResults returns the session's results, newest first.
func (s *PostgresStore) ListResults(ctx context.Context, sessionID string) ([]models.GeneratedResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+resultColumns+` FROM remix_results WHERE session_id = $1 ORDER BY seq DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	out := []models.GeneratedResult{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetResult(ctx context.Context, sessionID, id string) (models.GeneratedResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM remix_results WHERE session_id = $1 AND id = $2`, sessionID, id)
	r, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.GeneratedResult{}, ErrNotFound
	}
	if err != nil {
		return models.GeneratedResult{}, err
	}
	return r, nil
}

func (s *PostgresStore) DeleteResults(ctx context.Context, sessionID string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM remix_results WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanResult(row pgx.Row) (models.GeneratedResult, error) {
	var (
		r     models.GeneratedResult
		ratio string
	)
	err := row.Scan(&r.ID, &r.Preset.ID, &r.Preset.Name, &r.Preset.Prompt, &r.Preset.Tags, &ratio,
		&r.Image.MIMEType, &r.Image.Data, &r.OriginalImage.MIMEType, &r.OriginalImage.Data, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("scan result: %w", err)
	}
	r.AspectRatio = models.AspectRatio(ratio)
	return r, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Store = (*PostgresStore)(nil)
