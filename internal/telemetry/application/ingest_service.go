package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	alarms "github.com/IsmaelPl01/netolight/internal/alarms/domain"
	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	"github.com/IsmaelPl01/netolight/internal/observability/metrics"
	queue "github.com/IsmaelPl01/netolight/internal/queue/domain"
	stream "github.com/IsmaelPl01/netolight/internal/stream/domain"
	"github.com/IsmaelPl01/netolight/internal/telemetry/codec"
	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
)

// RawStreamKey is the queue partition carrying raw state envelopes.
const RawStreamKey = "streetlamp:state"

// BatchResult reports one drained batch.
type BatchResult struct {
	// Cursor is the id of the last handled message; feed it back as
	// afterID on the next call.
	Cursor int64
	// Accepted counts readings that passed validation and were stored.
	Accepted int
}

// IngestService drains the telemetry queue into validated readings.
type IngestService struct {
	queue      queue.Queue
	readings   telemetry.ReadingRepository
	alarms     alarms.AlarmRepository
	watermarks stream.WatermarkRepository
	loc        *time.Location
	logger     *log.Logger
}

// NewIngestService constructs an ingest service. loc must match the
// location the aggregation stages bucket in, so the producer cursor
// lands on the same hour boundary the pull groups by.
func NewIngestService(q queue.Queue, readings telemetry.ReadingRepository, alarmRepo alarms.AlarmRepository, watermarks stream.WatermarkRepository, loc *time.Location, logger *log.Logger) *IngestService {
	if loc == nil {
		loc = time.UTC
	}
	return &IngestService{
		queue:      q,
		readings:   readings,
		alarms:     alarmRepo,
		watermarks: watermarks,
		loc:        loc,
		logger:     logger,
	}
}

// EnqueueReading appends a state envelope to the intake queue. An empty
// deduplication id gets a generated one.
func (s *IngestService) EnqueueReading(ctx context.Context, env telemetry.StateEnvelope) (int64, error) {
	if env.DeduplicationID == "" {
		env.DeduplicationID = uuid.NewString()
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return 0, fmt.Errorf("enqueue reading: %w", err)
	}
	return s.queue.Append(ctx, RawStreamKey, payload)
}

// ProcessBatch drains up to max messages after afterID. Undecodable and
// invalid messages are consumed without storing a reading; storage
// errors abort the batch with the cursor parked before the failed
// message so it is retried. A failed queue delete is only logged, the
// cursor moves on regardless.
func (s *IngestService) ProcessBatch(ctx context.Context, afterID int64, max int) (BatchResult, error) {
	result := BatchResult{Cursor: afterID}
	msgs, err := s.queue.Read(ctx, RawStreamKey, afterID, max)
	if err != nil {
		return result, fmt.Errorf("read queue: %w", err)
	}

	for _, m := range msgs {
		accepted, err := s.processMessage(ctx, m)
		if err != nil {
			return result, err
		}
		if accepted {
			result.Accepted++
		}
		if err := s.queue.Delete(ctx, RawStreamKey, m.ID); err != nil {
			s.logger.Printf("delete message %d: %v", m.ID, err)
		}
		result.Cursor = m.ID
	}
	return result, nil
}

func (s *IngestService) processMessage(ctx context.Context, m queue.Message) (bool, error) {
	var env telemetry.StateEnvelope
	if err := json.Unmarshal(m.Payload, &env); err != nil {
		s.logger.Printf("message %d: malformed envelope: %v", m.ID, err)
		metrics.IncReadingRejected("malformed_envelope")
		return false, nil
	}

	state, err := codec.Decode(env.Data)
	if err != nil {
		s.logger.Printf("message %d from %s: %v", m.ID, env.DevEUI, err)
		metrics.IncReadingRejected("malformed_payload")
		return false, nil
	}

	reading := telemetry.Reading{
		DeduplicationID: env.DeduplicationID,
		Time:            env.Time,
		DevEUI:          env.DevEUI,
		Voltage:         state.Voltage,
		Current:         state.Current,
		EnergyOut:       state.EnergyOut,
		EnergyIn:        state.EnergyIn,
		Power:           state.Power,
		Frequency:       state.Frequency,
		StatusOn:        state.StatusOn,
	}

	prev, err := s.readings.FindLatestByEUI(ctx, reading.DevEUI)
	if err != nil {
		return false, fmt.Errorf("find latest %s: %w", reading.DevEUI, err)
	}

	if alarm := alarms.Validate(reading, prev); alarm != nil {
		if _, err := s.alarms.Insert(ctx, *alarm); err != nil {
			return false, fmt.Errorf("insert alarm %s: %w", reading.DevEUI, err)
		}
		metrics.IncReadingRejected(string(alarm.Kind))
		return false, nil
	}

	if _, err := s.readings.Insert(ctx, reading); err != nil {
		return false, fmt.Errorf("insert reading %s: %w", reading.DevEUI, err)
	}

	hour := analytics.ResolutionHourly.Truncate(reading.Time, s.loc)
	name := stream.Name("hourly", reading.DevEUI)
	if err := s.watermarks.UpsertProducer(ctx, name, hour); err != nil {
		return false, fmt.Errorf("advance producer %s: %w", name, err)
	}

	metrics.IncReadingAccepted()
	return true, nil
}
