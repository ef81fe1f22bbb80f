// Package dashboard derives display figures from rollup summaries.
//
// Savings compare measured consumption against what the same lamps
// would have drawn as conventional fixtures running at a fixed wattage
// for the observed on-time.
package dashboard

import (
	"math"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
)

const (
	// FullPowerBaselineWatts is the conventional fixture a lamp replaces.
	FullPowerBaselineWatts = 250.0
	// DimmedBaselineWatts is the comparison point for dimmed operation.
	DimmedBaselineWatts = 90.0

	co2TonsPerKWh = 6.99e-4
)

// ConsumptionKWh converts the summary's energy intake to kWh.
func ConsumptionKWh(s analytics.StateSummary) float64 {
	return s.EnergyIn / 1000
}

// ConsumptionKWhPerDevice spreads the intake over the devices seen.
func ConsumptionKWhPerDevice(s analytics.StateSummary) float64 {
	if s.NDevices == 0 {
		return 0
	}
	return ConsumptionKWh(s) / float64(s.NDevices)
}

// baselineWh is what conventional fixtures at watts would have drawn
// over the summary's on-time.
func baselineWh(s analytics.StateSummary, watts float64) float64 {
	return watts * s.OnTimeSeconds / 3600
}

// SavingsPercent is the relative saving against the watts baseline. A
// period without on-time has no baseline and reports zero.
func SavingsPercent(s analytics.StateSummary, watts float64) float64 {
	baseline := baselineWh(s, watts)
	if baseline == 0 {
		return 0
	}
	return 100 * (baseline - s.EnergyIn) / baseline
}

// CO2SavedTons converts the saved energy to avoided CO2, rounded to one
// decimal.
func CO2SavedTons(s analytics.StateSummary, watts float64) float64 {
	savedKWh := (baselineWh(s, watts) - s.EnergyIn) / 1000
	return round1(co2TonsPerKWh * savedKWh)
}

// CO2SavedTonsPerDevice divides the saved energy per device before
// converting, so the rounding applies to the per-device figure.
func CO2SavedTonsPerDevice(s analytics.StateSummary, watts float64) float64 {
	if s.NDevices == 0 {
		return 0
	}
	savedKWh := (baselineWh(s, watts) - s.EnergyIn) / float64(s.NDevices) / 1000
	return round1(co2TonsPerKWh * savedKWh)
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
