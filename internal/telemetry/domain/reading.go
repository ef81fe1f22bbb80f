package telemetry

import (
	"context"
	"time"
)

// Reading is a validated electrical-state sample from one controller.
// Readings are immutable once written.
type Reading struct {
	ID              int64
	DeduplicationID string
	Time            time.Time
	DevEUI          string

	Voltage   float64
	Current   float64
	EnergyOut float64
	EnergyIn  float64
	Power     float64
	Frequency float64
	StatusOn  bool
}

// StateEnvelope is the queue message wrapping one encoded reading.
type StateEnvelope struct {
	DeduplicationID string    `json:"deduplication_id"`
	Time            time.Time `json:"time"`
	DevEUI          string    `json:"dev_eui"`
	Data            string    `json:"data"`
}

// ReadingRepository persists raw readings.
type ReadingRepository interface {
	// Insert stores a reading. A replay carrying an already-seen
	// (dev_eui, deduplication_id) pair is accepted silently without
	// inserting a second row; inserted reports which case occurred.
	Insert(ctx context.Context, r Reading) (inserted bool, err error)
	FindByID(ctx context.Context, id int64) (*Reading, error)
	FindLatestByEUI(ctx context.Context, devEUI string) (*Reading, error)
	FindOldestByEUI(ctx context.Context, devEUI string) (*Reading, error)
}
