package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
)

const defaultStateTable = "streetlamp_states"

// ReadingRepository is a Postgres implementation for raw streetlamp states.
type ReadingRepository struct {
	db    *sql.DB
	table string
}

// NewReadingRepository constructs a reading repository.
func NewReadingRepository(db *sql.DB, opts ...ReadingOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultStateTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ReadingOption configures the reading repository.
type ReadingOption func(*ReadingRepository)

// WithStateTable overrides the table name.
func WithStateTable(table string) ReadingOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert writes a reading. A replayed deduplication id for the same
// device is silently skipped and reported as inserted=false.
func (r *ReadingRepository) Insert(ctx context.Context, reading telemetry.Reading) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("reading repository: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	deduplication_id,
	time,
	dev_eui,
	voltage,
	current,
	energy_out,
	energy_in,
	power,
	frequency,
	status_on
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (dev_eui, deduplication_id)
DO NOTHING`, r.table)

	res, err := r.db.ExecContext(ctx, query,
		reading.DeduplicationID,
		reading.Time.UTC(),
		reading.DevEUI,
		reading.Voltage,
		reading.Current,
		reading.EnergyOut,
		reading.EnergyIn,
		reading.Power,
		reading.Frequency,
		reading.StatusOn,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByID loads a reading by its row id, or nil when none exists.
func (r *ReadingRepository) FindByID(ctx context.Context, id int64) (*telemetry.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, deduplication_id, time, dev_eui,
	voltage, current, energy_out, energy_in, power, frequency, status_on
FROM %s
WHERE id = $1`, r.table)

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindLatestByEUI returns the newest reading for a device, or nil.
func (r *ReadingRepository) FindLatestByEUI(ctx context.Context, devEUI string) (*telemetry.Reading, error) {
	return r.findEdgeByEUI(ctx, devEUI, "DESC")
}

// FindOldestByEUI returns the oldest reading for a device, or nil.
func (r *ReadingRepository) FindOldestByEUI(ctx context.Context, devEUI string) (*telemetry.Reading, error) {
	return r.findEdgeByEUI(ctx, devEUI, "ASC")
}

func (r *ReadingRepository) findEdgeByEUI(ctx context.Context, devEUI, order string) (*telemetry.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, deduplication_id, time, dev_eui,
	voltage, current, energy_out, energy_in, power, frequency, status_on
FROM %s
WHERE dev_eui = $1
ORDER BY time %s
LIMIT 1`, r.table, order)

	return r.scanOne(r.db.QueryRowContext(ctx, query, devEUI))
}

func (r *ReadingRepository) scanOne(row *sql.Row) (*telemetry.Reading, error) {
	var reading telemetry.Reading
	err := row.Scan(
		&reading.ID,
		&reading.DeduplicationID,
		&reading.Time,
		&reading.DevEUI,
		&reading.Voltage,
		&reading.Current,
		&reading.EnergyOut,
		&reading.EnergyIn,
		&reading.Power,
		&reading.Frequency,
		&reading.StatusOn,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reading, nil
}
