package integration_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
	streampg "github.com/IsmaelPl01/netolight/internal/stream/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func TestWatermarkRepositoryPostgres(t *testing.T) {
	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var exists bool
	if err := db.QueryRow(`
SELECT EXISTS (
	SELECT 1
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_name = 'stream_states'
)`).Scan(&exists); err != nil || !exists {
		t.Skip("stream_states missing; run migrations")
	}

	ctx := context.Background()
	repo := streampg.NewWatermarkRepository(db)
	name := stream.Name("hourly", "wmtest0000000001")
	if err := repo.DeleteByName(ctx, name); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	w, err := repo.Find(ctx, name)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if w != nil {
		t.Fatalf("found %+v before insert", w)
	}

	t1 := time.Date(2026, time.February, 2, 15, 0, 0, 0, time.UTC)
	if err := repo.UpsertProducer(ctx, name, t1); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	w, err = repo.Find(ctx, name)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if w == nil || !w.Producer.Equal(t1) {
		t.Fatalf("producer = %+v, want %v", w, t1)
	}
	if w.Seeded() {
		t.Fatalf("fresh row reports a seeded consumer: %+v", w)
	}

	// Last write wins, even when it moves the cursor backwards.
	back := t1.Add(-2 * time.Hour)
	if err := repo.UpsertProducer(ctx, name, back); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	w, _ = repo.Find(ctx, name)
	if w == nil || !w.Producer.Equal(back) {
		t.Fatalf("producer = %+v, want %v", w, back)
	}

	if err := repo.SetConsumer(ctx, name, back); err != nil {
		t.Fatalf("set consumer: %v", err)
	}
	w, _ = repo.Find(ctx, name)
	if w == nil || !w.Consumer.Equal(back) || !w.Seeded() {
		t.Fatalf("consumer = %+v, want seeded %v", w, back)
	}
	if w.Pending() {
		t.Fatalf("caught-up cursor reports pending work: %+v", w)
	}

	if err := repo.DeleteByName(ctx, name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if w, _ := repo.Find(ctx, name); w != nil {
		t.Fatalf("row survived delete: %+v", w)
	}
}
