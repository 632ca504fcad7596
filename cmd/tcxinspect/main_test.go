package main

import (
	"bytes"
	"encoding/csv"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixturePath = filepath.Join("..", "..", "testdata", "easy_run.tcx")

func TestInspectTCX(t *testing.T) {
	res, err := inspect(fixturePath, nil)
	require.NoError(t, err)

	assert.Equal(t, "2023-01-02T07:00:00.000Z", res.Stats.ID)
	require.Len(t, res.Laps, 1)
	lap := res.Laps[0]
	assert.Equal(t, 1, lap.Index)
	assert.Equal(t, 5, lap.Trackpoints.Samples)
	assert.Equal(t, 150, lap.Trackpoints.MaxHeartRate)
	assert.Equal(t, 160, lap.AverageCadence)
	assert.InDelta(t, 2.0, lap.GainMeters, 1e-9)
	assert.InDelta(t, 3.0, lap.LossMeters, 1e-9)

	var buf bytes.Buffer
	require.NoError(t, printText(&buf, res, true))
	out := buf.String()
	assert.Contains(t, out, "=== 2023-01-02T07:00:00.000Z ===")
	assert.Contains(t, out, "Lap Summary")
	assert.Contains(t, out, "- Lap 01 |    1.00 mi |   10m00s | 140 bpm (max 150) | 160 spm |  240 W | +  2.0m -  3.0m | 5 pts")
}

func TestInspectMissingFile(t *testing.T) {
	_, err := inspect(filepath.Join(t.TempDir(), "missing.tcx"), nil)
	require.Error(t, err)
}

func TestInspectStdin(t *testing.T) {
	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)

	res, err := inspect("-", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "2023-01-02T07:00:00.000Z", res.Stats.ID)
	assert.Equal(t, 140, res.Stats.AverageHeartRate)
}

func TestWriteExports(t *testing.T) {
	res, err := inspect(fixturePath, nil)
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "exports")
	paths := exportPaths{
		JSONL:   filepath.Join(dir, "stats.jsonl"),
		CSV:     filepath.Join(dir, "stats.csv"),
		Parquet: filepath.Join(dir, "stats.parquet"),
		Chart:   filepath.Join(dir, "chart.png"),
	}
	require.NoError(t, writeExports(res, paths))

	jsonl, err := os.ReadFile(paths.JSONL)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(jsonl), "\n"))
	assert.Contains(t, string(jsonl), `"id":"2023-01-02T07:00:00.000Z"`)

	f, err := os.Open(paths.CSV)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2023-01-02T07:00:00.000Z", rows[1][1])

	parquet, err := os.ReadFile(paths.Parquet)
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(parquet[:4]))

	img, err := os.Open(paths.Chart)
	require.NoError(t, err)
	defer img.Close()
	_, err = png.DecodeConfig(img)
	require.NoError(t, err)
}

func TestWriteExportsSkipsEmptyPaths(t *testing.T) {
	res, err := inspect(fixturePath, nil)
	require.NoError(t, err)
	assert.NoError(t, writeExports(res, exportPaths{}))
}
