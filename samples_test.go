package tcxanalyzer

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeSamplesFixture(t *testing.T) {
	db, err := ParseTCXFile(filepath.Join("testdata", "easy_run.tcx"))
	require.NoError(t, err)
	act, _ := db.ActivityAt(0)

	got := SummarizeSamples(&act.Laps[0])

	assert.Equal(t, 5, got.Samples)
	assert.Equal(t, 4.0, got.ElapsedSeconds)
	assert.Equal(t, 150, got.MaxHeartRate)
	assert.InDelta(t, 2.65, got.AverageSpeed, 1e-9)
	assert.Equal(t, 2.7, got.MaxSpeed)
	// (80+82)/2 = 81 single-foot.
	assert.Equal(t, 162, got.AverageCadence)
	assert.Equal(t, 250, got.AverageWatts)
	assert.Equal(t, 250, got.MaxWatts)
}

func TestSummarizeSamplesEmpty(t *testing.T) {
	assert.Equal(t, SampleSummary{}, SummarizeSamples(nil))
	assert.Equal(t, SampleSummary{}, SummarizeSamples(&Lap{}))

	bare := &Lap{Samples: []Sample{{Time: time.Unix(10, 0)}}}
	got := SummarizeSamples(bare)
	assert.Equal(t, 1, got.Samples)
	assert.Zero(t, got.ElapsedSeconds)
	assert.Zero(t, got.MaxHeartRate)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "0s", FormatDuration(-3))
	assert.Equal(t, "6s", FormatDuration(6.2))
	assert.Equal(t, "4m05s", FormatDuration(245))
	assert.Equal(t, "1h02m03s", FormatDuration(3723))
}
