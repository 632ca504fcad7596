package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/tcx-analyzer/pipeline"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig([]string{"runs"})
	require.NoError(t, err)

	assert.Equal(t, "runs", cfg.Pipeline.Dir)
	assert.Equal(t, pipeline.DefaultReportPath, cfg.Pipeline.ReportPath)
	assert.Equal(t, pipeline.DefaultChartPath, cfg.Pipeline.ChartPath)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.FileTimeout)
	assert.Zero(t, cfg.Pipeline.Workers)
	assert.False(t, cfg.Pipeline.FailFast)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.DBPath)
}

func TestLoadConfigFlags(t *testing.T) {
	cfg, err := loadConfig([]string{
		"-o", "out/report.txt", "-c", "out/chart.png",
		"--workers", "1", "--timeout", "5s", "--fail-fast",
		"--json", "out/stats.jsonl", "--csv", "out/stats.csv", "--db", "history.db",
		"--log-level", "debug", "--log-format", "json",
		"runs",
	})
	require.NoError(t, err)

	assert.Equal(t, "out/report.txt", cfg.Pipeline.ReportPath)
	assert.Equal(t, "out/chart.png", cfg.Pipeline.ChartPath)
	assert.Equal(t, 1, cfg.Pipeline.Workers)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.FileTimeout)
	assert.True(t, cfg.Pipeline.FailFast)
	assert.Equal(t, "out/stats.jsonl", cfg.Pipeline.JSONLPath)
	assert.Equal(t, "out/stats.csv", cfg.Pipeline.CSVPath)
	assert.Equal(t, "history.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("TCXSTATS_WORKERS", "3")
	t.Setenv("TCXSTATS_LOG_LEVEL", "warn")
	t.Setenv("TCXSTATS_DIR", "from-env")

	cfg, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Pipeline.Dir)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)

	// Flags win over the environment.
	cfg, err = loadConfig([]string{"--workers", "2", "runs"})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Pipeline.Workers)
	assert.Equal(t, "runs", cfg.Pipeline.Dir)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tcxstats.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dir: /data/runs\nworkers: 4\nno-chart: true\nparquet: stats.parquet\n"), 0o644))

	cfg, err := loadConfig([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "/data/runs", cfg.Pipeline.Dir)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.True(t, cfg.Pipeline.SkipChart)
	assert.Equal(t, "stats.parquet", cfg.Pipeline.ParquetPath)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig(nil)
	assert.Error(t, err)

	_, err = loadConfig([]string{"--workers", "-1", "runs"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "runs"})
	assert.Error(t, err)

	_, err = loadConfig([]string{"--bogus", "runs"})
	assert.Error(t, err)
}
