// Package stream tracks per-device aggregation progress.
//
// Each device and resolution pair owns a named stream state row. The
// producer timestamp marks how far source data has been published into
// the stream; the consumer timestamp marks how far the next stage has
// rolled it up. A consumer only has work when its timestamp trails the
// producer's.
package stream

import (
	"context"
	"fmt"
	"time"
)

// Watermark is the durable cursor pair for one stream.
type Watermark struct {
	ID       int64
	Name     string
	Producer time.Time
	Consumer time.Time
}

// Pending reports whether the consumer trails the producer.
func (w Watermark) Pending() bool {
	return w.Consumer.Before(w.Producer)
}

// Seeded reports whether the consumer cursor has ever advanced. A fresh
// stream carries an epoch consumer until its first aggregation pass.
func (w Watermark) Seeded() bool {
	return w.Consumer.Unix() > 0
}

// Name builds the canonical stream name for a device at a resolution,
// for example "streetlamp:state:hourly:a84041fdfe2b60c1".
func Name(resolution, devEUI string) string {
	return fmt.Sprintf("streetlamp:state:%s:%s", resolution, devEUI)
}

// WatermarkRepository persists stream cursors.
type WatermarkRepository interface {
	// Find returns the watermark for name, or nil when none exists.
	Find(ctx context.Context, name string) (*Watermark, error)
	// UpsertProducer sets the producer cursor, creating the row on
	// first use. Last write wins.
	UpsertProducer(ctx context.Context, name string, t time.Time) error
	// SetConsumer records consumer progress on an existing row.
	SetConsumer(ctx context.Context, name string, t time.Time) error
	DeleteByName(ctx context.Context, name string) error
	DeleteAll(ctx context.Context) error
}
