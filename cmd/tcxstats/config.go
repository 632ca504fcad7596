package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lucasjlepore/tcx-analyzer/logging"
	"github.com/lucasjlepore/tcx-analyzer/pipeline"
)

const envPrefix = "TCXSTATS"

type config struct {
	Pipeline pipeline.Options
	Log      logging.Options
	// DBPath, when set, records the run in a SQLite history database.
	DBPath string
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tcxstats", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringP("output", "o", pipeline.DefaultReportPath, "Report output path")
	fs.StringP("chart", "c", pipeline.DefaultChartPath, "Chart PNG output path")
	fs.Bool("no-chart", false, "Skip chart rendering")
	fs.Int("workers", 0, "Concurrent parsers (0 = number of CPUs, 1 = sequential)")
	fs.Duration("timeout", 30*time.Second, "Per-file parse timeout (0 disables)")
	fs.Bool("fail-fast", false, "Abort on the first file that fails to parse")
	fs.String("json", "", "Write per-activity stats as JSONL to this path")
	fs.String("csv", "", "Write per-activity stats as CSV to this path")
	fs.String("parquet", "", "Write per-activity stats as Parquet to this path")
	fs.String("manifest", "", "Write a run manifest (JSON) to this path")
	fs.String("db", "", "Record the run in this SQLite database")
	fs.String("config", "", "Config file (yaml, toml or json)")
	fs.String("log-level", "info", "Log level: debug|info|warn|error")
	fs.String("log-format", "text", "Log format: text|json")
	fs.String("log-file", "", "Write logs to this rotating file instead of stderr")
	fs.Int("log-max-size", 10, "Log file size in MB before rotation")
	fs.Int("log-max-backups", 3, "Rotated log files to keep")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <directory>\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	return fs
}

// loadConfig resolves flags, TCXSTATS_* environment variables and an
// optional config file, in that order of precedence. The source directory
// comes from the first positional argument or the "dir" key.
func loadConfig(args []string) (*config, error) {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	dir := v.GetString("dir")
	if fs.NArg() > 0 {
		dir = fs.Arg(0)
	}
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("source directory is required")
	}

	cfg := &config{
		Pipeline: pipeline.Options{
			Dir:          dir,
			ReportPath:   v.GetString("output"),
			ChartPath:    v.GetString("chart"),
			SkipChart:    v.GetBool("no-chart"),
			JSONLPath:    v.GetString("json"),
			CSVPath:      v.GetString("csv"),
			ParquetPath:  v.GetString("parquet"),
			ManifestPath: v.GetString("manifest"),
			Workers:      v.GetInt("workers"),
			FileTimeout:  v.GetDuration("timeout"),
			FailFast:     v.GetBool("fail-fast"),
		},
		Log: logging.Options{
			Level:      v.GetString("log-level"),
			Format:     v.GetString("log-format"),
			File:       v.GetString("log-file"),
			MaxSizeMB:  v.GetInt("log-max-size"),
			MaxBackups: v.GetInt("log-max-backups"),
		},
		DBPath: v.GetString("db"),
	}
	if cfg.Pipeline.Workers < 0 {
		return nil, fmt.Errorf("workers must be >= 0, got %d", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.FileTimeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0, got %s", cfg.Pipeline.FileTimeout)
	}
	return cfg, nil
}
