package memory

import (
	"context"
	"sync"

	queue "github.com/IsmaelPl01/netolight/internal/queue/domain"
)

// Queue is an in-memory queue for demo/testing.
type Queue struct {
	mu     sync.Mutex
	nextID int64
	items  map[string][]queue.Message
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{nextID: 1, items: make(map[string][]queue.Message)}
}

// Append adds a payload to streamKey and returns its position.
func (q *Queue) Append(ctx context.Context, streamKey string, payload []byte) (int64, error) {
	_ = ctx
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.nextID
	q.nextID++
	buf := make([]byte, len(payload))
	copy(buf, payload)
	q.items[streamKey] = append(q.items[streamKey], queue.Message{ID: id, Payload: buf})
	return id, nil
}

// Read returns up to max messages of streamKey after afterID, oldest first.
func (q *Queue) Read(ctx context.Context, streamKey string, afterID int64, max int) ([]queue.Message, error) {
	_ = ctx
	if max <= 0 {
		max = 100
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	var result []queue.Message
	for _, m := range q.items[streamKey] {
		if m.ID <= afterID {
			continue
		}
		result = append(result, m)
		if len(result) == max {
			break
		}
	}
	return result, nil
}

// Delete removes a handled message.
func (q *Queue) Delete(ctx context.Context, streamKey string, id int64) error {
	_ = ctx
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items[streamKey]
	for i, m := range items {
		if m.ID == id {
			q.items[streamKey] = append(items[:i], items[i+1:]...)
			break
		}
	}
	return nil
}

// Len counts undeleted messages of streamKey.
func (q *Queue) Len(ctx context.Context, streamKey string) (int64, error) {
	_ = ctx
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items[streamKey])), nil
}
