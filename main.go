package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	alarmrepo "github.com/IsmaelPl01/netolight/internal/alarms/infrastructure/postgres"
	analyticsapp "github.com/IsmaelPl01/netolight/internal/analytics/application"
	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	analyticsrepo "github.com/IsmaelPl01/netolight/internal/analytics/infrastructure/postgres"
	"github.com/IsmaelPl01/netolight/internal/config"
	devicerepo "github.com/IsmaelPl01/netolight/internal/devices/infrastructure/postgres"
	"github.com/IsmaelPl01/netolight/internal/observability/metrics"
	"github.com/IsmaelPl01/netolight/internal/pipeline"
	queuerepo "github.com/IsmaelPl01/netolight/internal/queue/infrastructure/postgres"
	streamrepo "github.com/IsmaelPl01/netolight/internal/stream/infrastructure/postgres"
	telemetryapp "github.com/IsmaelPl01/netolight/internal/telemetry/application"
	telemetryrepo "github.com/IsmaelPl01/netolight/internal/telemetry/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatalf("location error: %v", err)
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)

	readingRepo := telemetryrepo.NewReadingRepository(db)
	alarmRepo := alarmrepo.NewAlarmRepository(db)
	watermarkRepo := streamrepo.NewWatermarkRepository(db)
	lampRepo := devicerepo.NewStreetlampRepository(db)
	queue := queuerepo.NewQueue(db)

	ingest := telemetryapp.NewIngestService(queue, readingRepo, alarmRepo, watermarkRepo, loc, logger)

	var stages []analyticsapp.Stage
	for _, resolution := range []analytics.Resolution{
		analytics.ResolutionHourly,
		analytics.ResolutionDaily,
		analytics.ResolutionWeekly,
		analytics.ResolutionMonthly,
	} {
		store, err := analyticsrepo.NewStageStore(db, resolution, loc)
		if err != nil {
			logger.Fatalf("stage store error: %v", err)
		}
		stages = append(stages, analyticsapp.Stage{Resolution: resolution, Store: store})
	}
	aggregator := analyticsapp.NewAggregator(stages, lampRepo, watermarkRepo, loc, logger)

	runner := pipeline.NewRunner(ingest, aggregator, pipeline.NewLeaderLease(db), logger,
		pipeline.WithIngestInterval(cfg.IngestInterval),
		pipeline.WithAggregationInterval(cfg.AggregationInterval),
		pipeline.WithBatchSize(cfg.IngestBatchSize),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Run(ctx)
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		logger.Printf("metrics listening on %s", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Printf("shutting down")
	_ = server.Shutdown(context.Background())
	<-done
}
