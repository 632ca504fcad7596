package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/statsexport"
)

// ParseOptions bounds the parse stage.
type ParseOptions struct {
	Workers     int
	FileTimeout time.Duration
	FailFast    bool
	Logger      *slog.Logger
}

func (o ParseOptions) workers() int {
	if o.Workers < 1 {
		return runtime.NumCPU()
	}
	return o.Workers
}

// ParseAll parses every path on a bounded worker pool and returns one result
// per path, in input order. It returns only after every task has finished.
//
// Without FailFast a failing file is recorded in its FileResult and the rest
// of the batch continues; the returned error is then only non-nil when ctx
// is cancelled. With FailFast the first failure cancels outstanding work and
// is returned as a *ParseError.
func ParseAll(ctx context.Context, paths []string, opts ParseOptions) ([]FileResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers())

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res := parseOne(gctx, path, opts.FileTimeout, logger)
			results[i] = res
			if res.Err != nil && opts.FailFast {
				return &ParseError{Path: path, Err: res.Err}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func parseOne(ctx context.Context, path string, timeout time.Duration, logger *slog.Logger) FileResult {
	start := time.Now()
	res := FileResult{Path: path, Format: sourceFormat(path)}

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("parse abandoned: %w", err)
			logger.Warn("Failed to parse", "path", path, "error", res.Err)
			return res
		}
	}

	logger.Debug("Parsing", "path", path)

	type outcome struct {
		data []byte
		doc  *tcxanalyzer.TrainingCenterDatabase
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Parser panicked", "path", path, "panic", r, "stack", string(debug.Stack()))
				done <- outcome{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		data, err := os.ReadFile(path)
		if err != nil {
			done <- outcome{err: fmt.Errorf("read file: %w", err)}
			return
		}
		doc, err := ParseBytes(res.Format, data)
		done <- outcome{data: data, doc: doc, err: err}
	}()

	select {
	case <-ctx.Done():
		res.Err = fmt.Errorf("parse abandoned: %w", ctx.Err())
	case out := <-done:
		res.Document, res.Err = out.doc, out.err
		if out.data != nil {
			res.SHA256 = statsexport.Checksum(out.data)
			res.Size = int64(len(out.data))
		}
	}
	res.Elapsed = time.Since(start)

	if res.Err != nil {
		logger.Warn("Failed to parse", "path", path, "error", res.Err)
	} else {
		logger.Info("Successfully parsed", "path", path, "elapsed", res.Elapsed)
	}
	return res
}

// ParseBytes decodes one in-memory source document of the given format
// ("tcx" or "fit").
func ParseBytes(format string, data []byte) (*tcxanalyzer.TrainingCenterDatabase, error) {
	switch format {
	case formatTCX:
		return tcxanalyzer.ParseTCXBytes(data)
	case formatFIT:
		return tcxanalyzer.ParseFITBytes(data)
	default:
		return nil, fmt.Errorf("unsupported source format %q", format)
	}
}
