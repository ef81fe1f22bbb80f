package alarms

import (
	"math"

	telemetry "github.com/IsmaelPl01/netolight/internal/telemetry/domain"
)

// Plausibility thresholds for incoming readings.
const (
	MinValidValue = 0.0001
	MaxValidValue = 1000.0
	MaxPower      = 95.0
	MaxFrequency  = 65.0

	// MaxEnergyRate is the largest tolerated energy_in increase per
	// hour between consecutive readings of one device.
	MaxEnergyRate = 100000.0
)

// Validate applies the plausibility rules to a reading. prev is the
// latest persisted reading for the same device, nil when none exists.
// The rules run in fixed order and the first match wins. A nil result
// means the reading is accepted; otherwise the returned alarm snapshots
// the rejected metrics and the reading must not be persisted.
func Validate(r telemetry.Reading, prev *telemetry.Reading) *Alarm {
	if implausible(r.Voltage) || implausible(r.Current) ||
		implausible(r.Power) || implausible(r.Frequency) {
		return snapshot(r, KindInvalidValue, SeverityMinor)
	}

	if r.Power > MaxPower {
		return snapshot(r, KindOverPower, SeverityCritical)
	}

	if r.Frequency > MaxFrequency {
		return snapshot(r, KindOverFrequency, SeverityCritical)
	}

	if prev != nil {
		// Whole hours, floored, never below one. Sub-hour bursts are
		// therefore rated against a full hour; see the design notes.
		hours := math.Floor(r.Time.Sub(prev.Time).Hours())
		if hours < 1 {
			hours = 1
		}
		if (r.EnergyIn-prev.EnergyIn)/hours > MaxEnergyRate {
			return snapshot(r, KindOverEnergy, SeverityMajor)
		}
	}

	return nil
}

func implausible(v float64) bool {
	return math.IsNaN(v) || v < MinValidValue || v > MaxValidValue
}
