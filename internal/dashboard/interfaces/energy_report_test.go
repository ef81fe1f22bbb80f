package interfaces_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analytics "github.com/IsmaelPl01/netolight/internal/analytics/domain"
	"github.com/IsmaelPl01/netolight/internal/dashboard/interfaces"
)

func sampleReport() interfaces.EnergyReport {
	base := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	points := make([]analytics.PointwiseSummary, 0, 3)
	for i := 0; i < 3; i++ {
		points = append(points, analytics.PointwiseSummary{
			Bucket: base.AddDate(0, 0, i),
			StateSummary: analytics.StateSummary{
				NDevices:      3,
				Voltage:       120,
				EnergyIn:      2250,
				OnTimeSeconds: 36 * 3600,
			},
		})
	}
	return interfaces.EnergyReport{
		Title:  "Energy Report",
		Period: "2024-03-04 to 2024-03-06",
		Total: analytics.StateSummary{
			NDevices:      3,
			Voltage:       120,
			EnergyIn:      6750,
			OnTimeSeconds: 108 * 3600,
		},
		Points: points,
	}
}

func TestBuildEnergyReportPDF(t *testing.T) {
	data, err := interfaces.BuildEnergyReportPDF(sampleReport())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestBuildEnergyReportXLSX(t *testing.T) {
	data, err := interfaces.BuildEnergyReportXLSX(sampleReport())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// xlsx is a zip container
	assert.True(t, bytes.HasPrefix(data, []byte("PK")))
}
