package alarms

import (
	"context"
	"time"

	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
)

// Kind identifies the rule that raised an alarm.
type Kind string

const (
	KindInvalidValue  Kind = "INVALID_VALUE"
	KindOverVoltage   Kind = "OVER_VOLTAGE"
	KindOverCurrent   Kind = "OVER_CURRENT"
	KindOverPower     Kind = "OVER_POWER"
	KindOverEnergy    Kind = "OVER_ENERGY"
	KindOverFrequency Kind = "OVER_FREQUENCY"
)

// Severity grades an alarm.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
)

// Alarm records a rejected reading. It snapshots the offending metrics
// rather than referencing the reading, because the reading itself is
// dropped. Cleared is the only mutable field; it is toggled by the
// operator-facing layer.
type Alarm struct {
	ID       int64
	Time     time.Time
	Kind     Kind
	Severity Severity
	Cleared  bool
	DevEUI   string

	Voltage   float64
	Current   float64
	EnergyOut float64
	EnergyIn  float64
	Power     float64
	Frequency float64
	StatusOn  bool
}

// SeveritySummary counts not-yet-cleared alarms per severity.
type SeveritySummary struct {
	Critical int
	Major    int
	Minor    int
}

// AlarmRepository persists alarms.
type AlarmRepository interface {
	Insert(ctx context.Context, a Alarm) (int64, error)
	Summary(ctx context.Context) (SeveritySummary, error)
}

func snapshot(r telemetry.Reading, kind Kind, severity Severity) *Alarm {
	return &Alarm{
		Time:      r.Time,
		Kind:      kind,
		Severity:  severity,
		Cleared:   false,
		DevEUI:    r.DevEUI,
		Voltage:   r.Voltage,
		Current:   r.Current,
		EnergyOut: r.EnergyOut,
		EnergyIn:  r.EnergyIn,
		Power:     r.Power,
		Frequency: r.Frequency,
		StatusOn:  r.StatusOn,
	}
}
