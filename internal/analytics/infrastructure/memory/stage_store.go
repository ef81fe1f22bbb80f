package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
)

// RawSource lists raw readings for a device in a closed time range.
type RawSource interface {
	All() []telemetry.Reading
}

// StageStore is an in-memory rollup stage for demo/testing. It mirrors
// the Postgres pull semantics: averages for the electrical metrics,
// counter deltas over 100 and status duty cycle when reading raw states,
// plain sums when reading a lower rollup stage.
type StageStore struct {
	mu         sync.Mutex
	resolution analytics.Resolution
	loc        *time.Location
	watermarks stream.WatermarkRepository
	next       []analytics.Resolution
	readings   RawSource
	source     *StageStore
	rows       map[string]analytics.RollupRow
}

// NewRawStageStore constructs the hourly stage over raw readings.
func NewRawStageStore(readings RawSource, watermarks stream.WatermarkRepository, loc *time.Location, next ...analytics.Resolution) *StageStore {
	return &StageStore{
		resolution: analytics.ResolutionHourly,
		loc:        loc,
		watermarks: watermarks,
		next:       next,
		readings:   readings,
		rows:       make(map[string]analytics.RollupRow),
	}
}

// NewRollupStageStore constructs a stage over a lower-resolution stage.
func NewRollupStageStore(resolution analytics.Resolution, source *StageStore, watermarks stream.WatermarkRepository, loc *time.Location, next ...analytics.Resolution) *StageStore {
	return &StageStore{
		resolution: resolution,
		loc:        loc,
		watermarks: watermarks,
		next:       next,
		source:     source,
		rows:       make(map[string]analytics.RollupRow),
	}
}

func rowKey(bucket time.Time, devEUI string) string {
	return bucket.UTC().Format(time.RFC3339) + "/" + devEUI
}

// AggregateWindow pulls source rows for dev in [t0, t1], upserts the
// resulting buckets and moves the stream cursors.
func (s *StageStore) AggregateWindow(ctx context.Context, devEUI string, t0, t1 time.Time) (int, error) {
	var written int
	if s.readings != nil {
		written = s.aggregateRaw(devEUI, t0, t1)
	} else {
		written = s.aggregateRollup(devEUI, t0, t1)
	}

	if err := s.watermarks.SetConsumer(ctx, stream.Name(string(s.resolution), devEUI), t1); err != nil {
		return 0, err
	}
	for _, next := range s.next {
		name := stream.Name(string(next), devEUI)
		if err := s.watermarks.UpsertProducer(ctx, name, next.Truncate(t1, s.loc)); err != nil {
			return 0, err
		}
	}
	return written, nil
}

func (s *StageStore) aggregateRaw(devEUI string, t0, t1 time.Time) int {
	grouped := make(map[time.Time][]telemetry.Reading)
	for _, r := range s.readings.All() {
		if r.DevEUI != devEUI || r.Time.Before(t0) || r.Time.After(t1) {
			continue
		}
		bucket := s.resolution.Truncate(r.Time, s.loc)
		grouped[bucket] = append(grouped[bucket], r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for bucket, readings := range grouped {
		row := analytics.RollupRow{Bucket: bucket, DevEUI: devEUI}
		minIn, maxIn := readings[0].EnergyIn, readings[0].EnergyIn
		minOut, maxOut := readings[0].EnergyOut, readings[0].EnergyOut
		var on int
		for _, r := range readings {
			row.Voltage += r.Voltage
			row.Current += r.Current
			row.Power += r.Power
			row.Frequency += r.Frequency
			minIn = min(minIn, r.EnergyIn)
			maxIn = max(maxIn, r.EnergyIn)
			minOut = min(minOut, r.EnergyOut)
			maxOut = max(maxOut, r.EnergyOut)
			if r.StatusOn {
				on++
			}
		}
		n := float64(len(readings))
		row.Voltage /= n
		row.Current /= n
		row.Power /= n
		row.Frequency /= n
		row.EnergyIn = (maxIn - minIn) / 100
		row.EnergyOut = (maxOut - minOut) / 100
		row.OnTimeSeconds = float64(on) / n * 3600
		s.rows[rowKey(bucket, devEUI)] = row
	}
	return len(grouped)
}

func (s *StageStore) aggregateRollup(devEUI string, t0, t1 time.Time) int {
	source := s.source.snapshot(devEUI, t0, t1)
	grouped := make(map[time.Time][]analytics.RollupRow)
	for _, r := range source {
		bucket := s.resolution.Truncate(r.Bucket, s.loc)
		grouped[bucket] = append(grouped[bucket], r)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for bucket, rows := range grouped {
		row := analytics.RollupRow{Bucket: bucket, DevEUI: devEUI}
		for _, r := range rows {
			row.Voltage += r.Voltage
			row.Current += r.Current
			row.Power += r.Power
			row.Frequency += r.Frequency
			row.EnergyIn += r.EnergyIn
			row.EnergyOut += r.EnergyOut
			row.OnTimeSeconds += r.OnTimeSeconds
		}
		n := float64(len(rows))
		row.Voltage /= n
		row.Current /= n
		row.Power /= n
		row.Frequency /= n
		s.rows[rowKey(bucket, devEUI)] = row
	}
	return len(grouped)
}

// snapshot returns stored buckets for dev with Bucket in [t0, t1].
func (s *StageStore) snapshot(devEUI string, t0, t1 time.Time) []analytics.RollupRow {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []analytics.RollupRow
	for _, r := range s.rows {
		if r.DevEUI != devEUI || r.Bucket.Before(t0) || r.Bucket.After(t1) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out
}

// OldestSourceTime returns the time of the oldest source row for dev,
// or nil when the device has no source data yet.
func (s *StageStore) OldestSourceTime(ctx context.Context, devEUI string) (*time.Time, error) {
	_ = ctx
	var found *time.Time
	if s.readings != nil {
		for _, r := range s.readings.All() {
			if r.DevEUI != devEUI {
				continue
			}
			if found == nil || r.Time.Before(*found) {
				t := r.Time
				found = &t
			}
		}
		return found, nil
	}

	s.source.mu.Lock()
	defer s.source.mu.Unlock()
	for _, r := range s.source.rows {
		if r.DevEUI != devEUI {
			continue
		}
		if found == nil || r.Bucket.Before(*found) {
			t := r.Bucket
			found = &t
		}
	}
	return found, nil
}

// Rows returns the stored buckets for dev in [from, to].
func (s *StageStore) Rows(ctx context.Context, devEUI string, from, to time.Time) ([]analytics.RollupRow, error) {
	_ = ctx
	return s.snapshot(devEUI, from, to), nil
}

// Summary condenses the single bucket at t across all devices.
func (s *StageStore) Summary(ctx context.Context, bucket time.Time) (analytics.StateSummary, error) {
	return s.RangeSummary(ctx, bucket, bucket)
}

// RangeSummary condenses every bucket in [from, to] across all devices.
func (s *StageStore) RangeSummary(ctx context.Context, from, to time.Time) (analytics.StateSummary, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum analytics.StateSummary
	devices := make(map[string]bool)
	var n float64
	for _, r := range s.rows {
		if r.Bucket.Before(from) || r.Bucket.After(to) {
			continue
		}
		devices[r.DevEUI] = true
		sum.Voltage += r.Voltage
		sum.Current += r.Current
		sum.Power += r.Power
		sum.Frequency += r.Frequency
		sum.EnergyIn += r.EnergyIn
		sum.EnergyOut += r.EnergyOut
		sum.OnTimeSeconds += r.OnTimeSeconds
		n++
	}
	if n > 0 {
		sum.Voltage /= n
		sum.Current /= n
		sum.Power /= n
		sum.Frequency /= n
	}
	sum.NDevices = len(devices)
	return sum, nil
}

// PointwiseSummary condenses every bucket in [from, to], one point per
// bucket.
func (s *StageStore) PointwiseSummary(ctx context.Context, from, to time.Time) ([]analytics.PointwiseSummary, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	grouped := make(map[time.Time][]analytics.RollupRow)
	for _, r := range s.rows {
		if r.Bucket.Before(from) || r.Bucket.After(to) {
			continue
		}
		grouped[r.Bucket] = append(grouped[r.Bucket], r)
	}

	var out []analytics.PointwiseSummary
	for bucket, rows := range grouped {
		p := analytics.PointwiseSummary{Bucket: bucket}
		devices := make(map[string]bool)
		for _, r := range rows {
			devices[r.DevEUI] = true
			p.Voltage += r.Voltage
			p.Current += r.Current
			p.Power += r.Power
			p.Frequency += r.Frequency
			p.EnergyIn += r.EnergyIn
			p.EnergyOut += r.EnergyOut
			p.OnTimeSeconds += r.OnTimeSeconds
		}
		n := float64(len(rows))
		p.Voltage /= n
		p.Current /= n
		p.Power /= n
		p.Frequency /= n
		p.NDevices = len(devices)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket.Before(out[j].Bucket) })
	return out, nil
}
