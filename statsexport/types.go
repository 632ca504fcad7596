package statsexport

import "time"

const (
	// FormatVersion identifies the on-disk schema of stats exports.
	FormatVersion = "tcx_stats_v1"
)

// Manifest captures run metadata and pointers to the files a run wrote.
type Manifest struct {
	FormatVersion string        `json:"format_version"`
	RunID         string        `json:"run_id"`
	GeneratedAt   time.Time     `json:"generated_at"`
	SourceDir     string        `json:"source_dir"`
	Sources       []SourceFile  `json:"sources"`
	Failures      []Failure     `json:"failures,omitempty"`
	ActivityCount int           `json:"activity_count"`
	Outputs       OutputPaths   `json:"outputs"`
	Elapsed       time.Duration `json:"elapsed_ns"`
}

// SourceFile describes one input file that was parsed successfully.
type SourceFile struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	SHA256     string `json:"sha256"`
	SizeBytes  int64  `json:"size_bytes"`
	ActivityID string `json:"activity_id,omitempty"`
}

// Failure records one input file that could not be parsed.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// OutputPaths lists generated artifacts. Empty entries were not requested.
type OutputPaths struct {
	Report  string `json:"report,omitempty"`
	Chart   string `json:"chart,omitempty"`
	JSONL   string `json:"jsonl,omitempty"`
	CSV     string `json:"csv,omitempty"`
	Parquet string `json:"parquet,omitempty"`
}
