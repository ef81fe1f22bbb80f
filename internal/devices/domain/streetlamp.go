// Package devices holds the streetlamp registry.
package devices

import "context"

// Streetlamp is one registered controller.
type Streetlamp struct {
	ID   int64
	EUI  string
	Name string
	Lon  float64
	Lat  float64
}

// StreetlampRepository persists registered streetlamps.
type StreetlampRepository interface {
	FindAll(ctx context.Context) ([]Streetlamp, error)
	// FindByEUI returns the lamp with the given EUI, or nil.
	FindByEUI(ctx context.Context, eui string) (*Streetlamp, error)
	Insert(ctx context.Context, lamp Streetlamp) (int64, error)
	DeleteByID(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
