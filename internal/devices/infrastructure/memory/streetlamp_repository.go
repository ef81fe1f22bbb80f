package memory

import (
	"context"
	"sort"
	"sync"

	devices "github.com/IsmaelPl01/netolight/internal/devices/domain"
)

// StreetlampRepository is an in-memory registry for demo/testing.
type StreetlampRepository struct {
	mu     sync.Mutex
	nextID int64
	data   map[int64]devices.Streetlamp
}

// NewStreetlampRepository constructs an empty repository.
func NewStreetlampRepository() *StreetlampRepository {
	return &StreetlampRepository{nextID: 1, data: make(map[int64]devices.Streetlamp)}
}

// FindAll returns every registered lamp ordered by name.
func (r *StreetlampRepository) FindAll(ctx context.Context) ([]devices.Streetlamp, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]devices.Streetlamp, 0, len(r.data))
	for _, lamp := range r.data {
		result = append(result, lamp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// FindByEUI returns the lamp with the given EUI, or nil.
func (r *StreetlampRepository) FindByEUI(ctx context.Context, eui string) (*devices.Streetlamp, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, lamp := range r.data {
		if lamp.EUI == eui {
			cp := lamp
			return &cp, nil
		}
	}
	return nil, nil
}

// Insert registers a lamp and returns its id.
func (r *StreetlampRepository) Insert(ctx context.Context, lamp devices.Streetlamp) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	lamp.ID = r.nextID
	r.nextID++
	r.data[lamp.ID] = lamp
	return lamp.ID, nil
}

// DeleteByID removes a lamp.
func (r *StreetlampRepository) DeleteByID(ctx context.Context, id int64) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, id)
	return nil
}

// Count returns the number of registered lamps.
func (r *StreetlampRepository) Count(ctx context.Context) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.data)), nil
}
