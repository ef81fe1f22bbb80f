package pipeline_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	alarmsmem "github.com/IsmaelPl01/netolight/internal/alarms/infrastructure/memory"
	analyticsapp "github.com/IsmaelPl01/netolight/internal/analytics/application"
	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	analyticsmem "github.com/IsmaelPl01/netolight/internal/analytics/infrastructure/memory"
	devices "github.com/IsmaelPl01/netolight/internal/devices/domain"
	devicesmem "github.com/IsmaelPl01/netolight/internal/devices/infrastructure/memory"
	"github.com/IsmaelPl01/netolight/internal/pipeline"
	queuemem "github.com/IsmaelPl01/netolight/internal/queue/infrastructure/memory"
	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
	streammem "github.com/IsmaelPl01/netolight/internal/stream/infrastructure/memory"
	telemetryapp "github.com/IsmaelPl01/netolight/internal/telemetry/application"
	"github.com/IsmaelPl01/netolight/internal/telemetry/codec"
	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
	telemetrymem "github.com/IsmaelPl01/netolight/internal/telemetry/infrastructure/memory"
)

func TestStepDrainsAndAggregates(t *testing.T) {
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)
	devEUI := "runner0000000001"

	readings := telemetrymem.NewReadingRepository()
	watermarks := streammem.NewWatermarkRepository()
	lamps := devicesmem.NewStreetlampRepository()
	if _, err := lamps.Insert(ctx, devices.Streetlamp{EUI: devEUI, Name: "runner lamp"}); err != nil {
		t.Fatalf("insert lamp: %v", err)
	}

	ingest := telemetryapp.NewIngestService(
		queuemem.NewQueue(), readings, alarmsmem.NewAlarmRepository(), watermarks, time.UTC, logger)

	hourly := analyticsmem.NewRawStageStore(readings, watermarks, time.UTC)
	aggregator := analyticsapp.NewAggregator(
		[]analyticsapp.Stage{{Resolution: analytics.ResolutionHourly, Store: hourly}},
		lamps, watermarks, time.UTC, logger)

	runner := pipeline.NewRunner(ingest, aggregator, pipeline.NewLeaderLease(nil), logger,
		pipeline.WithAggregationInterval(time.Hour),
		pipeline.WithBatchSize(10))

	base := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	enqueue := func(id string, at time.Time, energyIn float64) {
		t.Helper()
		env := telemetry.StateEnvelope{
			DeduplicationID: id,
			Time:            at,
			DevEUI:          devEUI,
			Data: codec.Encode(codec.State{
				Voltage: 220, Current: 0.3, EnergyIn: energyIn,
				Power: 60, Frequency: 60, StatusOn: true,
			}),
		}
		if _, err := ingest.EnqueueReading(ctx, env); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	enqueue("r-1", base, 1000)
	enqueue("r-2", base.Add(time.Hour), 1100)

	// The first step both drains the queue and, with no pass on record,
	// runs an aggregation pass right away.
	runner.Step(ctx)

	rows, err := hourly.Rows(ctx, devEUI, base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("hourly rows = %d, want 2", len(rows))
	}

	// New data within the aggregation interval is ingested but not yet
	// rolled up.
	enqueue("r-3", base.Add(2*time.Hour), 1200)
	runner.Step(ctx)

	w, err := watermarks.Find(ctx, stream.Name("hourly", devEUI))
	if err != nil {
		t.Fatalf("find watermark: %v", err)
	}
	if w == nil || !w.Producer.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("producer = %+v, want %v", w, base.Add(2*time.Hour))
	}
	if !w.Consumer.Equal(base.Add(time.Hour)) {
		t.Fatalf("consumer = %v, want %v", w.Consumer, base.Add(time.Hour))
	}
	if rows, _ = hourly.Rows(ctx, devEUI, base, base.Add(2*time.Hour)); len(rows) != 2 {
		t.Fatalf("rows after second step = %d, want 2", len(rows))
	}
}
