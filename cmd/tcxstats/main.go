package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lucasjlepore/tcx-analyzer/logging"
	"github.com/lucasjlepore/tcx-analyzer/pipeline"
	"github.com/lucasjlepore/tcx-analyzer/store"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "tcxstats: %v\n", err)
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "tcxstats failed: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()
	cfg.Pipeline.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	res, err := pipeline.Run(ctx, cfg.Pipeline)
	if err != nil {
		return err
	}
	for _, f := range res.Failures {
		logger.Warn("Skipped source file", "path", f.Path, "error", f.Error)
	}

	if cfg.DBPath != "" {
		db, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		saved, err := db.SaveRun(ctx, store.Run{
			ID:        res.RunID,
			SourceDir: cfg.Pipeline.Dir,
			CreatedAt: started,
			Elapsed:   res.Elapsed,
		}, res.Stats, res.Failures)
		if err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		logger.Info("Recorded run", "db", cfg.DBPath, "run_id", saved.ID)
	}

	logger.Info("Done", "activities", len(res.Stats), "elapsed", time.Since(started))
	return nil
}
