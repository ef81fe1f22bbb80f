// Package queue defines the durable telemetry intake buffer.
package queue

import "context"

// Message is one queued payload with its monotonic position.
type Message struct {
	ID      int64
	Payload []byte
}

// Queue is an append-only buffer read in insertion order, partitioned
// by stream key. Consumers track their own cursor and delete messages
// once handled.
type Queue interface {
	Append(ctx context.Context, streamKey string, payload []byte) (int64, error)
	// Read returns up to max messages of streamKey with ID greater
	// than afterID, oldest first.
	Read(ctx context.Context, streamKey string, afterID int64, max int) ([]Message, error)
	Delete(ctx context.Context, streamKey string, id int64) error
	Len(ctx context.Context, streamKey string) (int64, error)
}
