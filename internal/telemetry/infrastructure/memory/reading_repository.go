package memory

import (
	"context"
	"sync"

	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
)

// ReadingRepository is an in-memory reading store for demo/testing.
type ReadingRepository struct {
	mu       sync.Mutex
	nextID   int64
	readings []telemetry.Reading
	seen     map[string]bool
}

// NewReadingRepository constructs an empty repository.
func NewReadingRepository() *ReadingRepository {
	return &ReadingRepository{nextID: 1, seen: make(map[string]bool)}
}

// Insert writes a reading, skipping replayed deduplication ids.
func (r *ReadingRepository) Insert(ctx context.Context, reading telemetry.Reading) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	key := reading.DevEUI + "/" + reading.DeduplicationID
	if r.seen[key] {
		return false, nil
	}
	r.seen[key] = true
	reading.ID = r.nextID
	r.nextID++
	r.readings = append(r.readings, reading)
	return true, nil
}

// FindByID loads a reading by its row id, or nil when none exists.
func (r *ReadingRepository) FindByID(ctx context.Context, id int64) (*telemetry.Reading, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.readings {
		if r.readings[i].ID == id {
			cp := r.readings[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// FindLatestByEUI returns the newest reading for a device, or nil.
func (r *ReadingRepository) FindLatestByEUI(ctx context.Context, devEUI string) (*telemetry.Reading, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *telemetry.Reading
	for i := range r.readings {
		reading := &r.readings[i]
		if reading.DevEUI != devEUI {
			continue
		}
		if found == nil || reading.Time.After(found.Time) {
			found = reading
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

// FindOldestByEUI returns the oldest reading for a device, or nil.
func (r *ReadingRepository) FindOldestByEUI(ctx context.Context, devEUI string) (*telemetry.Reading, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *telemetry.Reading
	for i := range r.readings {
		reading := &r.readings[i]
		if reading.DevEUI != devEUI {
			continue
		}
		if found == nil || reading.Time.Before(found.Time) {
			found = reading
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

// All returns a snapshot of stored readings in insertion order.
func (r *ReadingRepository) All() []telemetry.Reading {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]telemetry.Reading, len(r.readings))
	copy(out, r.readings)
	return out
}
