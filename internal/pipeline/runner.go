// Package pipeline drives ingestion and aggregation on one loop.
package pipeline

import (
	"context"
	"log"
	"time"

	analyticsapp "github.com/IsmaelPl01/netolight/internal/analytics/application"
	"github.com/IsmaelPl01/netolight/internal/observability/metrics"
	telemetryapp "github.com/IsmaelPl01/netolight/internal/telemetry/application"
)

const (
	defaultIngestInterval      = 30 * time.Second
	defaultAggregationInterval = 15 * time.Minute
	defaultBatchSize           = 1000
)

// Runner alternates queue draining with periodic aggregation passes.
type Runner struct {
	ingest     *telemetryapp.IngestService
	aggregator *analyticsapp.Aggregator
	lease      *LeaderLease
	logger     *log.Logger

	ingestInterval      time.Duration
	aggregationInterval time.Duration
	batchSize           int

	cursor   int64
	lastPass time.Time
}

// NewRunner constructs a runner.
func NewRunner(ingest *telemetryapp.IngestService, aggregator *analyticsapp.Aggregator, lease *LeaderLease, logger *log.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		ingest:              ingest,
		aggregator:          aggregator,
		lease:               lease,
		logger:              logger,
		ingestInterval:      defaultIngestInterval,
		aggregationInterval: defaultAggregationInterval,
		batchSize:           defaultBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithIngestInterval overrides the sleep between ingest batches.
func WithIngestInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.ingestInterval = d
		}
	}
}

// WithAggregationInterval overrides the time between aggregation passes.
func WithAggregationInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.aggregationInterval = d
		}
	}
}

// WithBatchSize overrides the ingest batch size.
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// Run loops until ctx is cancelled. Batch and pass failures are logged
// and the loop keeps going.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ingestInterval)
	defer ticker.Stop()

	for {
		r.Step(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Step drains one ingest batch and, when the aggregation interval has
// elapsed, runs one aggregation pass.
func (r *Runner) Step(ctx context.Context) {
	start := time.Now()
	batch, err := r.ingest.ProcessBatch(ctx, r.cursor, r.batchSize)
	r.cursor = batch.Cursor
	if err != nil {
		r.logger.Printf("ingest batch: %v", err)
		metrics.ObserveIngestBatch(metrics.ResultError, time.Since(start))
	} else {
		metrics.ObserveIngestBatch(metrics.ResultSuccess, time.Since(start))
	}

	if time.Since(r.lastPass) < r.aggregationInterval {
		return
	}
	r.runPass(ctx)
}

func (r *Runner) runPass(ctx context.Context) {
	got, err := r.lease.TryAcquire(ctx)
	if err != nil {
		r.logger.Printf("aggregation lease: %v", err)
		return
	}
	if !got {
		return
	}
	defer func() {
		if err := r.lease.Release(ctx); err != nil {
			r.logger.Printf("release lease: %v", err)
		}
	}()

	start := time.Now()
	rows, err := r.aggregator.RunPass(ctx)
	if err != nil {
		r.logger.Printf("aggregation pass: %v", err)
		metrics.ObserveAggregationPass(metrics.ResultError, time.Since(start))
		return
	}
	r.lastPass = time.Now()
	metrics.ObserveAggregationPass(metrics.ResultSuccess, time.Since(start))
	r.logger.Printf("aggregation pass wrote %d rows in %s", rows, time.Since(start).Round(time.Millisecond))
}
