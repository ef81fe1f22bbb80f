package memory

import (
	"context"
	"sync"
	"time"

	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
)

// WatermarkRepository is an in-memory stream cursor store for demo/testing.
type WatermarkRepository struct {
	mu     sync.Mutex
	nextID int64
	data   map[string]*stream.Watermark
}

// NewWatermarkRepository constructs an empty repository.
func NewWatermarkRepository() *WatermarkRepository {
	return &WatermarkRepository{
		nextID: 1,
		data:   make(map[string]*stream.Watermark),
	}
}

// Find returns the watermark for name, or nil when none exists.
func (r *WatermarkRepository) Find(ctx context.Context, name string) (*stream.Watermark, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.data[name]
	if !ok {
		return nil, nil
	}
	cp := *w
	return &cp, nil
}

// UpsertProducer sets the producer cursor, creating the row on first use.
func (r *WatermarkRepository) UpsertProducer(ctx context.Context, name string, t time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	t = t.UTC()
	if w, ok := r.data[name]; ok {
		w.Producer = t
		return nil
	}
	r.data[name] = &stream.Watermark{
		ID:       r.nextID,
		Name:     name,
		Producer: t,
		Consumer: time.Unix(0, 0).UTC(),
	}
	r.nextID++
	return nil
}

// SetConsumer records consumer progress on an existing row.
func (r *WatermarkRepository) SetConsumer(ctx context.Context, name string, t time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.data[name]; ok {
		w.Consumer = t.UTC()
	}
	return nil
}

// DeleteByName removes one stream cursor.
func (r *WatermarkRepository) DeleteByName(ctx context.Context, name string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, name)
	return nil
}

// DeleteAll clears every stream cursor.
func (r *WatermarkRepository) DeleteAll(ctx context.Context) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = make(map[string]*stream.Watermark)
	return nil
}
