package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	alarms "github.com/IsmaelPl01/netolight/internal/alarms/domain"
)

const defaultAlarmTable = "streetlamp_alarms"

// AlarmRepository is a Postgres implementation for streetlamp alarms.
type AlarmRepository struct {
	db    *sql.DB
	table string
}

// NewAlarmRepository constructs an alarm repository.
func NewAlarmRepository(db *sql.DB, opts ...AlarmOption) *AlarmRepository {
	repo := &AlarmRepository{db: db, table: defaultAlarmTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AlarmOption configures the alarm repository.
type AlarmOption func(*AlarmRepository)

// WithAlarmTable overrides the table name.
func WithAlarmTable(table string) AlarmOption {
	return func(repo *AlarmRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert writes an alarm and returns its row id.
func (r *AlarmRepository) Insert(ctx context.Context, a alarms.Alarm) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("alarm repository: nil db")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	time,
	kind,
	severity,
	cleared,
	dev_eui,
	voltage,
	current,
	energy_out,
	energy_in,
	power,
	frequency,
	status_on
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
RETURNING id`, r.table)

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.Time.UTC(),
		string(a.Kind),
		string(a.Severity),
		a.Cleared,
		a.DevEUI,
		a.Voltage,
		a.Current,
		a.EnergyOut,
		a.EnergyIn,
		a.Power,
		a.Frequency,
		a.StatusOn,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Summary counts uncleared alarms per severity.
func (r *AlarmRepository) Summary(ctx context.Context) (alarms.SeveritySummary, error) {
	if r == nil || r.db == nil {
		return alarms.SeveritySummary{}, errors.New("alarm repository: nil db")
	}
	query := fmt.Sprintf(`
SELECT
	COUNT(*) FILTER (WHERE severity = $1),
	COUNT(*) FILTER (WHERE severity = $2),
	COUNT(*) FILTER (WHERE severity = $3)
FROM %s
WHERE NOT cleared`, r.table)

	var summary alarms.SeveritySummary
	err := r.db.QueryRowContext(ctx, query,
		string(alarms.SeverityCritical),
		string(alarms.SeverityMajor),
		string(alarms.SeverityMinor),
	).Scan(&summary.Critical, &summary.Major, &summary.Minor)
	if err != nil {
		return alarms.SeveritySummary{}, err
	}
	return summary, nil
}
