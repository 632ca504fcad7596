package statsexport

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
)

func exportStats() []tcxanalyzer.ActivityStats {
	return []tcxanalyzer.ActivityStats{
		{
			ID: "2023-01-01T07:00:00Z", Sport: "Running", Creator: "Forerunner 955", Laps: 2,
			DistanceMiles: 3.106856, DistanceKilometers: 5, AverageHeartRate: 150,
			AveragePace: "08:00 / mi", PaceSecondsPerMile: 480,
			AverageWatts: 230, AverageCadence: 170, ElevationGainFeet: 7, ElevationLossFeet: 10,
		},
		{ID: "2023-01-02T07:00:00Z", Sport: "Biking", AveragePace: tcxanalyzer.ZeroPace},
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Checksum(nil))
}

func TestMarshalJSONL(t *testing.T) {
	data, err := MarshalJSONL(exportStats())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "2023-01-01T07:00:00Z", first["id"])
	assert.Equal(t, "08:00 / mi", first["average_pace"])
	assert.Equal(t, float64(480), first["average_pace_seconds_per_mile"])
	assert.NotContains(t, first, "AveragePaceDuration")
}

func TestMarshalCSV(t *testing.T) {
	data, err := MarshalCSV(exportStats())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{
		"0", "2023-01-01T07:00:00Z", "Running", "Forerunner 955", "2",
		"3.106856", "5.000000", "150", "08:00 / mi", "480", "230", "170", "7", "10",
	}, rows[1])
	assert.Equal(t, "1", rows[2][0])
	assert.Equal(t, tcxanalyzer.ZeroPace, rows[2][8])
}

func TestWriteJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.jsonl")
	require.NoError(t, WriteJSONL(path, exportStats()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want, err := MarshalJSONL(exportStats())
	require.NoError(t, err)
	assert.Equal(t, want, data)
}

func TestWriteCSVCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "stats.csv")
	require.NoError(t, WriteCSV(path, exportStats()))
	assert.FileExists(t, path)
}

func TestMarshalManifest(t *testing.T) {
	m := Manifest{
		RunID:         "run-1",
		GeneratedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SourceDir:     "/data",
		Sources:       []SourceFile{{Path: "/data/a.tcx", Format: "tcx", SHA256: Checksum([]byte("a")), SizeBytes: 1}},
		Failures:      []Failure{{Path: "/data/b.tcx", Error: "boom"}},
		ActivityCount: 1,
		Outputs:       OutputPaths{Report: "output.txt"},
		Elapsed:       2 * time.Second,
	}
	data, err := MarshalManifest(m)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "\n"))

	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, FormatVersion, got.FormatVersion)
	m.FormatVersion = FormatVersion
	assert.Equal(t, m, got)
}

func TestMarshalParquet(t *testing.T) {
	data, err := MarshalParquet(exportStats())
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}

func TestWriteParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.parquet")
	require.NoError(t, WriteParquet(path, exportStats()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}
