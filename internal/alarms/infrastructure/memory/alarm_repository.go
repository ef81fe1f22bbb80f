package memory

import (
	"context"
	"sync"

	alarms "github.com/IsmaelPl01/netolight/internal/alarms/domain"
)

// AlarmRepository is an in-memory alarm store for demo/testing.
type AlarmRepository struct {
	mu     sync.Mutex
	nextID int64
	data   []alarms.Alarm
}

// NewAlarmRepository constructs an empty repository.
func NewAlarmRepository() *AlarmRepository {
	return &AlarmRepository{nextID: 1}
}

// Insert writes an alarm and returns its id.
func (r *AlarmRepository) Insert(ctx context.Context, a alarms.Alarm) (int64, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = r.nextID
	r.nextID++
	r.data = append(r.data, a)
	return a.ID, nil
}

// Summary counts uncleared alarms per severity.
func (r *AlarmRepository) Summary(ctx context.Context) (alarms.SeveritySummary, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	var summary alarms.SeveritySummary
	for _, a := range r.data {
		if a.Cleared {
			continue
		}
		switch a.Severity {
		case alarms.SeverityCritical:
			summary.Critical++
		case alarms.SeverityMajor:
			summary.Major++
		case alarms.SeverityMinor:
			summary.Minor++
		}
	}
	return summary, nil
}

// All returns a snapshot of stored alarms.
func (r *AlarmRepository) All() []alarms.Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]alarms.Alarm, len(r.data))
	copy(out, r.data)
	return out
}
