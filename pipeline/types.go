package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/statsexport"
)

// Error kinds surfaced by the pipeline. Match with errors.Is.
var (
	ErrNotDirectory = errors.New("source path is not a directory")
	ErrParse        = errors.New("parse failed")
	ErrOutput       = errors.New("write output failed")
)

// ParseError wraps a failure to parse one source file.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrParse, e.Err}
}

// Default output locations.
const (
	DefaultReportPath = "output.txt"
	DefaultChartPath  = "output-bitmap.png"
)

// Options configures a batch run.
type Options struct {
	// Dir is searched recursively for .tcx and .fit files.
	Dir string

	ReportPath string
	ChartPath  string
	// SkipChart disables chart rendering.
	SkipChart bool

	// Optional exports. Empty paths are skipped.
	JSONLPath    string
	CSVPath      string
	ParquetPath  string
	ManifestPath string

	// Workers bounds concurrent parsing. Values below 1 mean runtime.NumCPU().
	Workers int
	// FileTimeout bounds the parse of a single file. Zero disables it.
	FileTimeout time.Duration
	// FailFast aborts the run on the first parse failure instead of
	// collecting it.
	FailFast bool

	Logger *slog.Logger
}

// FileResult is the outcome of parsing one source file.
type FileResult struct {
	Path     string
	Format   string
	SHA256   string
	Size     int64
	Document *tcxanalyzer.TrainingCenterDatabase
	Err      error
	Elapsed  time.Duration
}

// OK reports whether the file parsed.
func (r FileResult) OK() bool {
	return r.Err == nil && r.Document != nil
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	Activities []*tcxanalyzer.AnalyzedActivity
	Stats      []tcxanalyzer.ActivityStats
	Sources    []statsexport.SourceFile
	Failures   []statsexport.Failure
	Outputs    statsexport.OutputPaths
	Elapsed    time.Duration
}
