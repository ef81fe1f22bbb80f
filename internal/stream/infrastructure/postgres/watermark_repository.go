package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
)

const defaultStreamStateTable = "stream_states"

// WatermarkRepository is a Postgres implementation of stream cursors.
type WatermarkRepository struct {
	db    *sql.DB
	table string
}

// NewWatermarkRepository constructs a watermark repository.
func NewWatermarkRepository(db *sql.DB, opts ...WatermarkOption) *WatermarkRepository {
	repo := &WatermarkRepository{db: db, table: defaultStreamStateTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// WatermarkOption configures the watermark repository.
type WatermarkOption func(*WatermarkRepository)

// WithStreamStateTable overrides the table name.
func WithStreamStateTable(table string) WatermarkOption {
	return func(repo *WatermarkRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Find returns the watermark for name, or nil when none exists.
func (r *WatermarkRepository) Find(ctx context.Context, name string) (*stream.Watermark, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("watermark repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, name, producer_time, consumer_time
FROM %s
WHERE name = $1`, r.table)

	var w stream.Watermark
	err := r.db.QueryRowContext(ctx, query, name).Scan(&w.ID, &w.Name, &w.Producer, &w.Consumer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// UpsertProducer sets the producer cursor, creating the row on first
// use. A new row starts with its consumer at the epoch so the first
// aggregation pass knows to seed its lower bound from source data.
func (r *WatermarkRepository) UpsertProducer(ctx context.Context, name string, t time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("watermark repository: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (name, producer_time, consumer_time)
VALUES ($1, $2, to_timestamp(0))
ON CONFLICT (name)
DO UPDATE SET producer_time = EXCLUDED.producer_time`, r.table)

	_, err := r.db.ExecContext(ctx, query, name, t.UTC())
	return err
}

// SetConsumer records consumer progress on an existing row.
func (r *WatermarkRepository) SetConsumer(ctx context.Context, name string, t time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("watermark repository: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET consumer_time = $1
WHERE name = $2`, r.table)

	_, err := r.db.ExecContext(ctx, query, t.UTC(), name)
	return err
}

// DeleteByName removes one stream cursor.
func (r *WatermarkRepository) DeleteByName(ctx context.Context, name string) error {
	if r == nil || r.db == nil {
		return errors.New("watermark repository: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, r.table)
	_, err := r.db.ExecContext(ctx, query, name)
	return err
}

// DeleteAll clears every stream cursor.
func (r *WatermarkRepository) DeleteAll(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("watermark repository: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s`, r.table)
	_, err := r.db.ExecContext(ctx, query)
	return err
}
