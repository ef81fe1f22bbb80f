package application

import (
	"context"
	"log"
	"time"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	devices "github.com/IsmaelPl01/netolight/internal/devices/domain"
	"github.com/IsmaelPl01/netolight/internal/observability/metrics"
	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
)

// Stage binds a resolution to its store.
type Stage struct {
	Resolution analytics.Resolution
	Store      analytics.StageStore
}

// Aggregator runs the rollup stages over every registered device. The
// stage order matters: each pass runs hourly before daily before weekly
// and monthly, so cursor advances published by one stage are visible to
// the next within the same pass.
type Aggregator struct {
	stages     []Stage
	devices    devices.StreetlampRepository
	watermarks stream.WatermarkRepository
	loc        *time.Location
	logger     *log.Logger
}

// NewAggregator constructs an aggregator over stages, in order.
func NewAggregator(stages []Stage, repo devices.StreetlampRepository, watermarks stream.WatermarkRepository, loc *time.Location, logger *log.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		stages:     stages,
		devices:    repo,
		watermarks: watermarks,
		loc:        loc,
		logger:     logger,
	}
}

// RunPass executes every stage in order across all devices and returns
// the total number of rollup rows written. A failing device is logged
// and skipped; the pass keeps going.
func (a *Aggregator) RunPass(ctx context.Context) (int, error) {
	lamps, err := a.devices.FindAll(ctx)
	if err != nil {
		return 0, err
	}

	var total int
	for _, stage := range a.stages {
		for _, lamp := range lamps {
			if err := ctx.Err(); err != nil {
				return total, err
			}
			n, err := a.runDevice(ctx, stage, lamp.EUI)
			if err != nil {
				a.logger.Printf("aggregation %s %s: %v", stage.Resolution, lamp.EUI, err)
				continue
			}
			metrics.AddRollupRows(string(stage.Resolution), n)
			total += n
		}
	}
	return total, nil
}

// runDevice rolls up one device for one stage. The window lower bound
// comes from the consumer cursor, seeded from the oldest source row on
// the first pass; the upper bound is the producer cursor.
func (a *Aggregator) runDevice(ctx context.Context, stage Stage, devEUI string) (int, error) {
	w, err := a.watermarks.Find(ctx, stream.Name(string(stage.Resolution), devEUI))
	if err != nil {
		return 0, err
	}
	if w == nil {
		return 0, nil
	}

	t1 := w.Producer
	var t0 time.Time
	if w.Seeded() {
		t0 = w.Consumer
	} else {
		oldest, err := stage.Store.OldestSourceTime(ctx, devEUI)
		if err != nil {
			return 0, err
		}
		if oldest == nil {
			return 0, nil
		}
		t0 = stage.Resolution.Truncate(*oldest, a.loc)
	}
	if !t0.Before(t1) {
		return 0, nil
	}
	return stage.Store.AggregateWindow(ctx, devEUI, t0, t1)
}
