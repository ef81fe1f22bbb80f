package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	queue "github.com/IsmaelPl01/netolight/internal/queue/domain"
)

const defaultQueueTable = "telemetry_queue"

// Queue is a Postgres-backed durable message buffer.
type Queue struct {
	db    *sql.DB
	table string
}

// NewQueue constructs a queue over db.
func NewQueue(db *sql.DB, opts ...QueueOption) *Queue {
	q := &Queue{db: db, table: defaultQueueTable}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// QueueOption configures the queue.
type QueueOption func(*Queue)

// WithQueueTable overrides the table name.
func WithQueueTable(table string) QueueOption {
	return func(q *Queue) {
		if table != "" {
			q.table = table
		}
	}
}

// Append adds a payload to streamKey and returns its position.
func (q *Queue) Append(ctx context.Context, streamKey string, payload []byte) (int64, error) {
	if q == nil || q.db == nil {
		return 0, errors.New("queue: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (stream_key, payload)
VALUES ($1, $2)
RETURNING id`, q.table)

	var id int64
	if err := q.db.QueryRowContext(ctx, query, streamKey, payload).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// Read returns up to max messages of streamKey after afterID, oldest first.
func (q *Queue) Read(ctx context.Context, streamKey string, afterID int64, max int) ([]queue.Message, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("queue: nil db")
	}
	if max <= 0 {
		max = 100
	}
	query := fmt.Sprintf(`
SELECT id, payload
FROM %s
WHERE stream_key = $1 AND id > $2
ORDER BY id ASC
LIMIT $3`, q.table)

	rows, err := q.db.QueryContext(ctx, query, streamKey, afterID, max)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []queue.Message
	for rows.Next() {
		var m queue.Message
		if err := rows.Scan(&m.ID, &m.Payload); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a handled message.
func (q *Queue) Delete(ctx context.Context, streamKey string, id int64) error {
	if q == nil || q.db == nil {
		return errors.New("queue: nil db")
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE stream_key = $1 AND id = $2`, q.table)
	_, err := q.db.ExecContext(ctx, query, streamKey, id)
	return err
}

// Len counts undeleted messages of streamKey.
func (q *Queue) Len(ctx context.Context, streamKey string) (int64, error) {
	if q == nil || q.db == nil {
		return 0, errors.New("queue: nil db")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE stream_key = $1`, q.table)
	var n int64
	if err := q.db.QueryRowContext(ctx, query, streamKey).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
