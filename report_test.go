package tcxanalyzer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleStats() ActivityStats {
	return ActivityStats{
		ID:                 "2023-01-02T07:00:00.000Z",
		Laps:               3,
		DistanceMiles:      3.10686,
		DistanceKilometers: 5.0,
		AverageHeartRate:   151,
		AveragePace:        "08:03 / mi",
		PaceSecondsPerMile: 483,
		AverageWatts:       245,
		AverageCadence:     172,
		ElevationGainFeet:  7,
		ElevationLossFeet:  10,
	}
}

func TestActivityStatsString(t *testing.T) {
	want := strings.Join([]string{
		"=== 2023-01-02T07:00:00.000Z ===",
		"  Total laps: 3",
		"  Distance: 3.11mi / 5.00km",
		"  Average HR: 151",
		"  Average Pace: 08:03 / mi",
		"  Average Power: 245W",
		"  Average Cadence: 172 steps/min",
		"  Elevation Gain: 7",
		"  Elevation Loss: 10",
		"================================\n\n",
	}, "\n")

	assert.Equal(t, want, sampleStats().String())
}

func TestWriteReportKeepsOrder(t *testing.T) {
	a := sampleStats()
	b := sampleStats()
	b.ID = "2023-01-03T07:00:00.000Z"

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, []ActivityStats{a, b}))

	out := buf.String()
	assert.Equal(t, a.String()+b.String(), out)
	assert.Less(t, strings.Index(out, a.ID), strings.Index(out, b.ID))
}

func TestWriteReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, nil))
	assert.Empty(t, buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteReportPropagatesErrors(t *testing.T) {
	err := WriteReport(failingWriter{}, []ActivityStats{sampleStats()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestChartSeries(t *testing.T) {
	a := sampleStats()
	b := sampleStats()
	b.PaceSecondsPerMile = 500
	b.AverageHeartRate = 140

	pace := PaceSeries([]ActivityStats{a, b})
	hr := HeartRateSeries([]ActivityStats{a, b})

	assert.Equal(t, []Point{{Index: 0, Value: 483}, {Index: 1, Value: 500}}, pace)
	assert.Equal(t, []Point{{Index: 0, Value: 151}, {Index: 1, Value: 140}}, hr)
}
