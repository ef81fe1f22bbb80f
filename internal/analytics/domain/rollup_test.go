package analytics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
)

func TestTruncate(t *testing.T) {
	loc, err := time.LoadLocation("America/Santo_Domingo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// Thursday, local time
	at := time.Date(2024, time.March, 14, 17, 42, 31, 500, loc)

	assert.Equal(t, time.Date(2024, time.March, 14, 17, 0, 0, 0, loc),
		analytics.ResolutionHourly.Truncate(at, loc))
	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, loc),
		analytics.ResolutionDaily.Truncate(at, loc))
	assert.Equal(t, time.Date(2024, time.March, 11, 0, 0, 0, 0, loc),
		analytics.ResolutionWeekly.Truncate(at, loc))
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, loc),
		analytics.ResolutionMonthly.Truncate(at, loc))
}

// Weeks start on Monday, so a Sunday truncates six days back and a
// Monday truncates to itself.
func TestTruncateWeekBoundaries(t *testing.T) {
	sunday := time.Date(2024, time.March, 10, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		analytics.ResolutionWeekly.Truncate(sunday, time.UTC))

	monday := time.Date(2024, time.March, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, analytics.ResolutionWeekly.Truncate(monday, time.UTC))
}

func TestTruncateConvertsZone(t *testing.T) {
	loc, err := time.LoadLocation("America/Santo_Domingo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	// 02:30 UTC is still the previous local day at UTC-4
	at := time.Date(2024, time.March, 15, 2, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, loc),
		analytics.ResolutionDaily.Truncate(at, loc))
}
