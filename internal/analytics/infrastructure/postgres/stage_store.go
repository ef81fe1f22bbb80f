package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
)

const defaultStreamTable = "stream_states"

// stageLayout binds a resolution to its source and target tables.
type stageLayout struct {
	unit       string
	sourceTbl  string
	sourceCol  string
	targetTbl  string
	fromRaw    bool
	nextStages []analytics.Resolution
}

var layouts = map[analytics.Resolution]stageLayout{
	analytics.ResolutionHourly: {
		unit: "hour", sourceTbl: "streetlamp_states", sourceCol: "time",
		targetTbl: "hourly_streetlamp_states", fromRaw: true,
		nextStages: []analytics.Resolution{analytics.ResolutionDaily},
	},
	analytics.ResolutionDaily: {
		unit: "day", sourceTbl: "hourly_streetlamp_states", sourceCol: "bucket",
		targetTbl: "daily_streetlamp_states",
		nextStages: []analytics.Resolution{analytics.ResolutionWeekly, analytics.ResolutionMonthly},
	},
	analytics.ResolutionWeekly: {
		unit: "week", sourceTbl: "daily_streetlamp_states", sourceCol: "bucket",
		targetTbl: "weekly_streetlamp_states",
	},
	analytics.ResolutionMonthly: {
		unit: "month", sourceTbl: "daily_streetlamp_states", sourceCol: "bucket",
		targetTbl: "monthly_streetlamp_states",
	},
}

// StageStore aggregates one resolution's rollup table in Postgres.
type StageStore struct {
	db          *sql.DB
	resolution  analytics.Resolution
	layout      stageLayout
	streamTable string
	loc         *time.Location
}

// NewStageStore constructs a stage store for resolution. Bucket
// truncation happens in loc, both in SQL and for the chained producer
// cursors.
func NewStageStore(db *sql.DB, resolution analytics.Resolution, loc *time.Location) (*StageStore, error) {
	layout, ok := layouts[resolution]
	if !ok {
		return nil, fmt.Errorf("stage store: unknown resolution %q", resolution)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StageStore{
		db:          db,
		resolution:  resolution,
		layout:      layout,
		streamTable: defaultStreamTable,
		loc:         loc,
	}, nil
}

// AggregateWindow pulls source rows for dev in [t0, t1] into this
// stage's table and moves the stream cursors, all in one transaction.
//
// Both endpoints are inclusive on purpose: cursors are bucket-aligned,
// so the bucket at the boundary is recomputed in full on the next pass
// and the upsert overwrites it. An exclusive lower bound would drop the
// rows sitting exactly on the boundary from that recompute.
func (s *StageStore) AggregateWindow(ctx context.Context, devEUI string, t0, t1 time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("stage store: nil db")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.pullQuery(), devEUI, t0.UTC(), t1.UTC(), s.loc.String())
	if err != nil {
		return 0, fmt.Errorf("aggregate %s %s: %w", s.resolution, devEUI, err)
	}
	written, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	consumerUpdate := fmt.Sprintf(`
UPDATE %s
SET consumer_time = $1
WHERE name = $2`, s.streamTable)
	if _, err := tx.ExecContext(ctx, consumerUpdate,
		t1.UTC(), stream.Name(string(s.resolution), devEUI)); err != nil {
		return 0, err
	}

	producerUpsert := fmt.Sprintf(`
INSERT INTO %s (name, producer_time, consumer_time)
VALUES ($1, $2, to_timestamp(0))
ON CONFLICT (name)
DO UPDATE SET producer_time = EXCLUDED.producer_time`, s.streamTable)
	for _, next := range s.layout.nextStages {
		bucket := next.Truncate(t1, s.loc)
		if _, err := tx.ExecContext(ctx, producerUpsert,
			stream.Name(string(next), devEUI), bucket.UTC()); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(written), nil
}

// pullQuery builds the grouped INSERT ... SELECT for this stage. Raw
// states carry running energy counters in centiwatt-hours, so the hourly
// stage takes (max-min)/100 and derives on-time as the duty cycle times
// the hour; higher stages just sum what the hourly stage wrote.
func (s *StageStore) pullQuery() string {
	if s.layout.fromRaw {
		return fmt.Sprintf(`
INSERT INTO %s (bucket, dev_eui, voltage, current, power, frequency, energy_in, energy_out, on_time)
SELECT
	date_trunc('%s', %s, $4),
	dev_eui,
	AVG(voltage),
	AVG(current),
	AVG(power),
	AVG(frequency),
	(MAX(energy_in) - MIN(energy_in)) / 100,
	(MAX(energy_out) - MIN(energy_out)) / 100,
	AVG(status_on::int) * 3600
FROM %s
WHERE dev_eui = $1 AND %s >= $2 AND %s <= $3
GROUP BY 1, 2
ON CONFLICT (bucket, dev_eui) DO UPDATE SET
	voltage = EXCLUDED.voltage,
	current = EXCLUDED.current,
	power = EXCLUDED.power,
	frequency = EXCLUDED.frequency,
	energy_in = EXCLUDED.energy_in,
	energy_out = EXCLUDED.energy_out,
	on_time = EXCLUDED.on_time`,
			s.layout.targetTbl, s.layout.unit, s.layout.sourceCol,
			s.layout.sourceTbl, s.layout.sourceCol, s.layout.sourceCol)
	}
	return fmt.Sprintf(`
INSERT INTO %s (bucket, dev_eui, voltage, current, power, frequency, energy_in, energy_out, on_time)
SELECT
	date_trunc('%s', %s, $4),
	dev_eui,
	AVG(voltage),
	AVG(current),
	AVG(power),
	AVG(frequency),
	SUM(energy_in),
	SUM(energy_out),
	SUM(on_time)
FROM %s
WHERE dev_eui = $1 AND %s >= $2 AND %s <= $3
GROUP BY 1, 2
ON CONFLICT (bucket, dev_eui) DO UPDATE SET
	voltage = EXCLUDED.voltage,
	current = EXCLUDED.current,
	power = EXCLUDED.power,
	frequency = EXCLUDED.frequency,
	energy_in = EXCLUDED.energy_in,
	energy_out = EXCLUDED.energy_out,
	on_time = EXCLUDED.on_time`,
		s.layout.targetTbl, s.layout.unit, s.layout.sourceCol,
		s.layout.sourceTbl, s.layout.sourceCol, s.layout.sourceCol)
}

// OldestSourceTime returns the time of the oldest source row for dev,
// or nil when the device has no source data yet.
func (s *StageStore) OldestSourceTime(ctx context.Context, devEUI string) (*time.Time, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("stage store: nil db")
	}
	query := fmt.Sprintf(`
SELECT MIN(%s)
FROM %s
WHERE dev_eui = $1`, s.layout.sourceCol, s.layout.sourceTbl)

	var t sql.NullTime
	if err := s.db.QueryRowContext(ctx, query, devEUI).Scan(&t); err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// Rows returns the stored buckets for dev in [from, to].
func (s *StageStore) Rows(ctx context.Context, devEUI string, from, to time.Time) ([]analytics.RollupRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("stage store: nil db")
	}
	query := fmt.Sprintf(`
SELECT bucket, dev_eui, voltage, current, power, frequency, energy_in, energy_out, on_time
FROM %s
WHERE dev_eui = $1 AND bucket >= $2 AND bucket <= $3
ORDER BY bucket ASC`, s.layout.targetTbl)

	rows, err := s.db.QueryContext(ctx, query, devEUI, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []analytics.RollupRow
	for rows.Next() {
		var r analytics.RollupRow
		if err := rows.Scan(&r.Bucket, &r.DevEUI, &r.Voltage, &r.Current,
			&r.Power, &r.Frequency, &r.EnergyIn, &r.EnergyOut, &r.OnTimeSeconds); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Summary condenses the single bucket at t across all devices.
func (s *StageStore) Summary(ctx context.Context, bucket time.Time) (analytics.StateSummary, error) {
	return s.RangeSummary(ctx, bucket, bucket)
}

// RangeSummary condenses every bucket in [from, to] across all devices.
func (s *StageStore) RangeSummary(ctx context.Context, from, to time.Time) (analytics.StateSummary, error) {
	if s == nil || s.db == nil {
		return analytics.StateSummary{}, errors.New("stage store: nil db")
	}
	query := fmt.Sprintf(`
SELECT
	COUNT(DISTINCT dev_eui),
	COALESCE(AVG(voltage), 0),
	COALESCE(AVG(current), 0),
	COALESCE(AVG(power), 0),
	COALESCE(AVG(frequency), 0),
	COALESCE(SUM(energy_in), 0),
	COALESCE(SUM(energy_out), 0),
	COALESCE(SUM(on_time), 0)
FROM %s
WHERE bucket >= $1 AND bucket <= $2`, s.layout.targetTbl)

	var sum analytics.StateSummary
	err := s.db.QueryRowContext(ctx, query, from.UTC(), to.UTC()).Scan(
		&sum.NDevices, &sum.Voltage, &sum.Current, &sum.Power, &sum.Frequency,
		&sum.EnergyIn, &sum.EnergyOut, &sum.OnTimeSeconds)
	if err != nil {
		return analytics.StateSummary{}, err
	}
	return sum, nil
}

// PointwiseSummary condenses every bucket in [from, to], one point per
// bucket.
func (s *StageStore) PointwiseSummary(ctx context.Context, from, to time.Time) ([]analytics.PointwiseSummary, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("stage store: nil db")
	}
	query := fmt.Sprintf(`
SELECT
	bucket,
	COUNT(DISTINCT dev_eui),
	AVG(voltage),
	AVG(current),
	AVG(power),
	AVG(frequency),
	SUM(energy_in),
	SUM(energy_out),
	SUM(on_time)
FROM %s
WHERE bucket >= $1 AND bucket <= $2
GROUP BY bucket
ORDER BY bucket ASC`, s.layout.targetTbl)

	rows, err := s.db.QueryContext(ctx, query, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []analytics.PointwiseSummary
	for rows.Next() {
		var p analytics.PointwiseSummary
		if err := rows.Scan(&p.Bucket, &p.NDevices, &p.Voltage, &p.Current,
			&p.Power, &p.Frequency, &p.EnergyIn, &p.EnergyOut, &p.OnTimeSeconds); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
