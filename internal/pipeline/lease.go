package pipeline

import (
	"context"
	"database/sql"
)

// aggregationLockKey namespaces the advisory lock shared by every
// process running the aggregation pass.
const aggregationLockKey int64 = 0x4e4c0001

// LeaderLease serializes aggregation across processes with a session
// advisory lock. The lock lives on a dedicated connection so pool
// recycling cannot silently release it mid-pass.
type LeaderLease struct {
	db   *sql.DB
	conn *sql.Conn
}

// NewLeaderLease constructs a lease over db. A nil db yields a lease
// that always acquires, for single-process and in-memory setups.
func NewLeaderLease(db *sql.DB) *LeaderLease {
	return &LeaderLease{db: db}
}

// TryAcquire attempts to take the lock without blocking. It reports
// false when another process holds it.
func (l *LeaderLease) TryAcquire(ctx context.Context) (bool, error) {
	if l.db == nil {
		return true, nil
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, err
	}
	var got bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", aggregationLockKey).Scan(&got); err != nil {
		conn.Close()
		return false, err
	}
	if !got {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Release gives the lock back and returns the connection to the pool.
func (l *LeaderLease) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", aggregationLockKey)
	closeErr := l.conn.Close()
	l.conn = nil
	if err != nil {
		return err
	}
	return closeErr
}
