package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/chart"
	"github.com/lucasjlepore/tcx-analyzer/statsexport"
)

// Run collects and parses every source file under opts.Dir, builds one
// summary per activity and writes the requested artifacts.
//
// Every artifact is rendered in memory before the first file is written, so
// a failure leaves no partial report or chart behind.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, fmt.Errorf("%w: source directory is required", ErrNotDirectory)
	}
	if strings.TrimSpace(opts.ReportPath) == "" {
		opts.ReportPath = DefaultReportPath
	}
	if !opts.SkipChart && strings.TrimSpace(opts.ChartPath) == "" {
		opts.ChartPath = DefaultChartPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	paths, err := Collect(opts.Dir)
	if err != nil {
		return nil, err
	}
	logger.Info("Collected source files", "dir", opts.Dir, "count", len(paths))

	files, err := ParseAll(ctx, paths, ParseOptions{
		Workers:     opts.Workers,
		FileTimeout: opts.FileTimeout,
		FailFast:    opts.FailFast,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	res := assemble(files, logger)
	res.Outputs = statsexport.OutputPaths{
		Report:  opts.ReportPath,
		JSONL:   opts.JSONLPath,
		CSV:     opts.CSVPath,
		Parquet: opts.ParquetPath,
	}
	if !opts.SkipChart {
		if len(res.Stats) == 0 {
			logger.Warn("No activities to chart, skipping chart")
		} else {
			res.Outputs.Chart = opts.ChartPath
		}
	}
	res.Elapsed = time.Since(start)

	artifacts, err := renderArtifacts(res, opts.Dir, opts.ManifestPath)
	if err != nil {
		return nil, err
	}
	for _, a := range artifacts {
		if err := writeArtifact(a); err != nil {
			return nil, err
		}
	}

	res.Elapsed = time.Since(start)
	logger.Info("Processed activities",
		"activities", len(res.Stats),
		"failures", len(res.Failures),
		"elapsed", res.Elapsed,
	)
	return res, nil
}

// assemble turns parse results into the ordered activity summaries plus the
// source and failure lists.
func assemble(files []FileResult, logger *slog.Logger) *Result {
	res := &Result{RunID: uuid.NewString()}
	docs := make([]*tcxanalyzer.TrainingCenterDatabase, 0, len(files))
	for _, f := range files {
		if !f.OK() {
			msg := "no document"
			if f.Err != nil {
				msg = f.Err.Error()
			}
			res.Failures = append(res.Failures, statsexport.Failure{Path: f.Path, Error: msg})
			continue
		}
		src := statsexport.SourceFile{
			Path:      f.Path,
			Format:    f.Format,
			SHA256:    f.SHA256,
			SizeBytes: f.Size,
		}
		if act, ok := f.Document.ActivityAt(0); ok {
			src.ActivityID = act.ID
		} else {
			logger.Warn("Document has no activities", "path", f.Path)
		}
		res.Sources = append(res.Sources, src)
		docs = append(docs, f.Document)
	}
	res.Activities = Prepare(docs)
	res.Stats = BuildAll(res.Activities)
	return res
}

type artifact struct {
	path string
	data []byte
}

func renderArtifacts(res *Result, sourceDir, manifestPath string) ([]artifact, error) {
	var out []artifact
	add := func(path string, render func() ([]byte, error)) error {
		if path == "" {
			return nil
		}
		data, err := render()
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrOutput, path, err)
		}
		out = append(out, artifact{path: path, data: data})
		return nil
	}

	if err := add(res.Outputs.Report, func() ([]byte, error) {
		var buf bytes.Buffer
		err := tcxanalyzer.WriteReport(&buf, res.Stats)
		return buf.Bytes(), err
	}); err != nil {
		return nil, err
	}
	if err := add(res.Outputs.Chart, func() ([]byte, error) {
		var buf bytes.Buffer
		err := chart.Render(&buf, res.Stats, chart.Options{})
		return buf.Bytes(), err
	}); err != nil {
		return nil, err
	}
	if err := add(res.Outputs.JSONL, func() ([]byte, error) {
		return statsexport.MarshalJSONL(res.Stats)
	}); err != nil {
		return nil, err
	}
	if err := add(res.Outputs.CSV, func() ([]byte, error) {
		return statsexport.MarshalCSV(res.Stats)
	}); err != nil {
		return nil, err
	}
	if err := add(res.Outputs.Parquet, func() ([]byte, error) {
		return statsexport.MarshalParquet(res.Stats)
	}); err != nil {
		return nil, err
	}
	if err := add(manifestPath, func() ([]byte, error) {
		return statsexport.MarshalManifest(manifestFor(res, sourceDir))
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func manifestFor(res *Result, sourceDir string) statsexport.Manifest {
	return statsexport.Manifest{
		FormatVersion: statsexport.FormatVersion,
		RunID:         res.RunID,
		GeneratedAt:   time.Now().UTC(),
		SourceDir:     sourceDir,
		Sources:       res.Sources,
		Failures:      res.Failures,
		ActivityCount: len(res.Stats),
		Outputs:       res.Outputs,
		Elapsed:       res.Elapsed,
	}
}

func writeArtifact(a artifact) error {
	if err := statsexport.EnsureParentDir(a.path); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	if err := os.WriteFile(a.path, a.data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}

// SourceBytes is one in-memory source document.
type SourceBytes struct {
	Name string
	Data []byte
}

// BytesOptions configures RunBytes.
type BytesOptions struct {
	Sources   []SourceBytes
	SkipChart bool
	// Parquet adds stats.parquet to the output set.
	Parquet bool
	Logger  *slog.Logger
}

// BytesResult carries a run summary plus the generated files keyed by name.
type BytesResult struct {
	*Result
	Files map[string][]byte
}

// In-memory artifact names used by RunBytes.
const (
	ReportFile   = "report.txt"
	ChartFile    = "chart.png"
	JSONLFile    = "stats.jsonl"
	CSVFile      = "stats.csv"
	ParquetFile  = "stats.parquet"
	ManifestFile = "manifest.json"
)

// RunBytes is Run for callers without a filesystem. Sources are parsed
// sequentially and failures are collected.
func RunBytes(opts BytesOptions) (*BytesResult, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Sources) == 0 {
		return nil, errors.New("at least one source file is required")
	}

	files := make([]FileResult, 0, len(opts.Sources))
	for _, src := range opts.Sources {
		fr := FileResult{
			Path:   src.Name,
			Format: sourceFormat(src.Name),
			SHA256: statsexport.Checksum(src.Data),
			Size:   int64(len(src.Data)),
		}
		fr.Document, fr.Err = ParseBytes(fr.Format, src.Data)
		if fr.Err != nil {
			logger.Warn("Failed to parse", "path", src.Name, "error", fr.Err)
		}
		files = append(files, fr)
	}

	res := assemble(files, logger)
	res.Outputs = statsexport.OutputPaths{
		Report: ReportFile,
		JSONL:  JSONLFile,
		CSV:    CSVFile,
	}
	if opts.Parquet {
		res.Outputs.Parquet = ParquetFile
	}
	if !opts.SkipChart && len(res.Stats) > 0 {
		res.Outputs.Chart = ChartFile
	}
	res.Elapsed = time.Since(start)

	artifacts, err := renderArtifacts(res, "", ManifestFile)
	if err != nil {
		return nil, err
	}
	out := &BytesResult{Result: res, Files: make(map[string][]byte, len(artifacts))}
	for _, a := range artifacts {
		out.Files[filepath.Base(a.path)] = a.data
	}
	return out, nil
}
