// Package analytics holds the multi-resolution rollup model.
//
// Raw streetlamp states are condensed into hourly buckets, hourly into
// daily, and daily into weekly and monthly. Each stage reads its source
// table between two watermark cursors and upserts one row per bucket
// and device into its own table.
package analytics

import (
	"context"
	"time"
)

// Resolution names one rollup stage.
type Resolution string

const (
	ResolutionHourly  Resolution = "hourly"
	ResolutionDaily   Resolution = "daily"
	ResolutionWeekly  Resolution = "weekly"
	ResolutionMonthly Resolution = "monthly"
)

// Truncate aligns t to the start of the bucket containing it, in loc.
// Weeks start on Monday.
func (r Resolution) Truncate(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	switch r {
	case ResolutionHourly:
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, loc)
	case ResolutionDaily:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	case ResolutionWeekly:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case ResolutionMonthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	}
	return t
}

// RollupRow is one aggregated bucket for one device.
type RollupRow struct {
	Bucket        time.Time
	DevEUI        string
	Voltage       float64
	Current       float64
	Power         float64
	Frequency     float64
	EnergyIn      float64
	EnergyOut     float64
	OnTimeSeconds float64
}

// StateSummary condenses one period across devices.
type StateSummary struct {
	NDevices      int
	Voltage       float64
	Current       float64
	Power         float64
	Frequency     float64
	EnergyIn      float64
	EnergyOut     float64
	OnTimeSeconds float64
}

// PointwiseSummary is a StateSummary pinned to its bucket, for series.
type PointwiseSummary struct {
	Bucket time.Time
	StateSummary
}

// StageStore is one resolution's aggregation table.
type StageStore interface {
	// AggregateWindow pulls source rows for dev in [t0, t1], upserts the
	// resulting buckets, advances the consumer cursor to t1 and the
	// named next-stage producers to their truncation of t1, all in one
	// transaction. It returns the number of buckets written.
	AggregateWindow(ctx context.Context, devEUI string, t0, t1 time.Time) (int, error)
	// OldestSourceTime returns the time of the oldest source row for
	// dev, or nil when the device has no source data yet.
	OldestSourceTime(ctx context.Context, devEUI string) (*time.Time, error)
	// Rows returns the stored buckets for dev in [from, to], ordered by
	// bucket.
	Rows(ctx context.Context, devEUI string, from, to time.Time) ([]RollupRow, error)
	// Summary condenses the single bucket at t across all devices.
	Summary(ctx context.Context, bucket time.Time) (StateSummary, error)
	// RangeSummary condenses every bucket in [from, to] across all
	// devices into one figure.
	RangeSummary(ctx context.Context, from, to time.Time) (StateSummary, error)
	// PointwiseSummary condenses every bucket in [from, to] across all
	// devices, one point per bucket.
	PointwiseSummary(ctx context.Context, from, to time.Time) ([]PointwiseSummary, error)
}
