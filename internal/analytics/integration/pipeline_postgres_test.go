package integration_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"testing"
	"time"

	alarmspg "github.com/IsmaelPl01/netolight/internal/alarms/infrastructure/postgres"
	analyticsapp "github.com/IsmaelPl01/netolight/internal/analytics/application"
	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	analyticspg "github.com/IsmaelPl01/netolight/internal/analytics/infrastructure/postgres"
	devices "github.com/IsmaelPl01/netolight/internal/devices/domain"
	devicespg "github.com/IsmaelPl01/netolight/internal/devices/infrastructure/postgres"
	queuepg "github.com/IsmaelPl01/netolight/internal/queue/infrastructure/postgres"
	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
	streampg "github.com/IsmaelPl01/netolight/internal/stream/infrastructure/postgres"
	telemetryapp "github.com/IsmaelPl01/netolight/internal/telemetry/application"
	"github.com/IsmaelPl01/netolight/internal/telemetry/codec"
	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
	telemetrypg "github.com/IsmaelPl01/netolight/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestPipelineClosedLoopPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	for _, table := range []string{
		"streetlamps", "streetlamp_states", "streetlamp_alarms",
		"stream_states", "telemetry_queue",
		"hourly_streetlamp_states", "daily_streetlamp_states",
		"weekly_streetlamp_states", "monthly_streetlamp_states",
	} {
		if !tableExists(db, table) {
			t.Skip("missing tables; run migrations")
		}
	}

	ctx := context.Background()
	devEUI := "pgcl00000000beef"

	_, _ = db.ExecContext(ctx, "DELETE FROM telemetry_queue WHERE stream_key = $1", telemetryapp.RawStreamKey)
	for _, table := range []string{
		"streetlamp_states", "streetlamp_alarms",
		"hourly_streetlamp_states", "daily_streetlamp_states",
		"weekly_streetlamp_states", "monthly_streetlamp_states",
	} {
		_, _ = db.ExecContext(ctx, "DELETE FROM "+table+" WHERE dev_eui = $1", devEUI)
	}
	_, _ = db.ExecContext(ctx, "DELETE FROM stream_states WHERE name LIKE '%:'||$1", devEUI)
	_, _ = db.ExecContext(ctx, "DELETE FROM streetlamps WHERE eui = $1", devEUI)

	logger := log.New(io.Discard, "", 0)
	lampRepo := devicespg.NewStreetlampRepository(db)
	watermarkRepo := streampg.NewWatermarkRepository(db)
	ingest := telemetryapp.NewIngestService(
		queuepg.NewQueue(db),
		telemetrypg.NewReadingRepository(db),
		alarmspg.NewAlarmRepository(db),
		watermarkRepo,
		time.UTC,
		logger,
	)

	if _, err := lampRepo.Insert(ctx, devices.Streetlamp{EUI: devEUI, Name: "pg closed loop"}); err != nil {
		t.Fatalf("insert lamp: %v", err)
	}

	// Monday so weekly truncation lands on the first day of data.
	day0 := time.Date(2026, time.February, 2, 0, 0, 0, 0, time.UTC)
	baseCounter := 500000.0
	enqueue := func(dedup string, at time.Time, energyIn, power float64) {
		t.Helper()
		env := telemetry.StateEnvelope{
			DeduplicationID: dedup,
			Time:            at,
			DevEUI:          devEUI,
			Data: codec.Encode(codec.State{
				Voltage:   220,
				Current:   0.3,
				EnergyIn:  energyIn,
				Power:     power,
				Frequency: 60,
				StatusOn:  true,
			}),
		}
		if _, err := ingest.EnqueueReading(ctx, env); err != nil {
			t.Fatalf("enqueue %s: %v", dedup, err)
		}
	}

	// Two readings per hour for a day; the counter climbs 100 within
	// each hour, so every hourly bucket carries exactly 1 Wh.
	for h := 0; h < 24; h++ {
		counter := baseCounter + float64(h)*200
		enqueue(fmt.Sprintf("%s-%02d-00", devEUI, h), day0.Add(time.Duration(h)*time.Hour), counter, 60)
		enqueue(fmt.Sprintf("%s-%02d-30", devEUI, h), day0.Add(time.Duration(h)*time.Hour+30*time.Minute), counter+100, 60)
	}
	// One reading past midnight, plus an over-power sample that must be
	// turned into an alarm instead of a reading.
	enqueue(devEUI+"-final", day0.Add(24*time.Hour), baseCounter+24*200, 60)
	enqueue(devEUI+"-hot", day0.Add(25*time.Hour), baseCounter+25*200, 96)

	res, err := ingest.ProcessBatch(ctx, 0, 100)
	if err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if res.Accepted != 49 {
		t.Fatalf("accepted = %d, want 49", res.Accepted)
	}

	var stored int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM streetlamp_states WHERE dev_eui = $1", devEUI).Scan(&stored); err != nil {
		t.Fatalf("count readings: %v", err)
	}
	if stored != 49 {
		t.Fatalf("stored readings = %d, want 49", stored)
	}

	var alarmCount int
	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM streetlamp_alarms WHERE dev_eui = $1 AND kind = 'OVER_POWER'", devEUI).Scan(&alarmCount); err != nil {
		t.Fatalf("count alarms: %v", err)
	}
	if alarmCount != 1 {
		t.Fatalf("over-power alarms = %d, want 1", alarmCount)
	}

	w, err := watermarkRepo.Find(ctx, stream.Name("hourly", devEUI))
	if err != nil {
		t.Fatalf("find watermark: %v", err)
	}
	if w == nil || !w.Producer.Equal(day0.Add(24*time.Hour)) {
		t.Fatalf("hourly producer = %+v, want %v", w, day0.Add(24*time.Hour))
	}
	if w.Seeded() {
		t.Fatalf("hourly consumer seeded before first pass: %+v", w)
	}

	var stages []analyticsapp.Stage
	stores := map[analytics.Resolution]*analyticspg.StageStore{}
	for _, resolution := range []analytics.Resolution{
		analytics.ResolutionHourly, analytics.ResolutionDaily,
		analytics.ResolutionWeekly, analytics.ResolutionMonthly,
	} {
		store, err := analyticspg.NewStageStore(db, resolution, time.UTC)
		if err != nil {
			t.Fatalf("new stage store %s: %v", resolution, err)
		}
		stores[resolution] = store
		stages = append(stages, analyticsapp.Stage{Resolution: resolution, Store: store})
	}
	aggregator := analyticsapp.NewAggregator(stages, lampRepo, watermarkRepo, time.UTC, logger)

	written, err := aggregator.RunPass(ctx)
	if err != nil {
		t.Fatalf("run pass: %v", err)
	}
	// 25 hourly buckets plus the two daily ones the same pass chains
	// into; the week and month windows are still empty.
	if written != 27 {
		t.Fatalf("rows written = %d, want 27", written)
	}

	hourlyRows, err := stores[analytics.ResolutionHourly].Rows(ctx, devEUI, day0, day0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("hourly rows: %v", err)
	}
	if len(hourlyRows) != 25 {
		t.Fatalf("hourly rows = %d, want 25", len(hourlyRows))
	}
	for i, row := range hourlyRows[:24] {
		if !approx(row.EnergyIn, 1) || !approx(row.OnTimeSeconds, 3600) {
			t.Fatalf("hourly row %d: energy=%v on=%v", i, row.EnergyIn, row.OnTimeSeconds)
		}
	}
	if !approx(hourlyRows[24].EnergyIn, 0) {
		t.Fatalf("midnight bucket energy = %v, want 0", hourlyRows[24].EnergyIn)
	}

	dailyRows, err := stores[analytics.ResolutionDaily].Rows(ctx, devEUI, day0, day0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("daily rows: %v", err)
	}
	if len(dailyRows) != 2 {
		t.Fatalf("daily rows = %d, want 2", len(dailyRows))
	}
	if !approx(dailyRows[0].EnergyIn, 24) || !approx(dailyRows[0].OnTimeSeconds, 24*3600) {
		t.Fatalf("day 0: energy=%v on=%v", dailyRows[0].EnergyIn, dailyRows[0].OnTimeSeconds)
	}
	if !approx(dailyRows[1].EnergyIn, 0) || !approx(dailyRows[1].OnTimeSeconds, 3600) {
		t.Fatalf("day 1: energy=%v on=%v", dailyRows[1].EnergyIn, dailyRows[1].OnTimeSeconds)
	}

	// With every cursor caught up a second pass must write nothing.
	written, err = aggregator.RunPass(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if written != 0 {
		t.Fatalf("second pass wrote %d rows, want 0", written)
	}
}

func approx(got, want float64) bool {
	return math.Abs(got-want) < 1e-6
}

func tableExists(db *sql.DB, table string) bool {
	var exists bool
	err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = $1
)`, table).Scan(&exists)
	if err != nil {
		return false
	}
	return exists
}
