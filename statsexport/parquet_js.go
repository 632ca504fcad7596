//go:build js

package statsexport

import (
	"errors"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
)

// ErrParquetUnsupported is returned by the parquet writers in browser builds.
var ErrParquetUnsupported = errors.New("parquet export is not available in js builds")

func WriteParquet(string, []tcxanalyzer.ActivityStats) error {
	return ErrParquetUnsupported
}

func MarshalParquet([]tcxanalyzer.ActivityStats) ([]byte, error) {
	return nil, ErrParquetUnsupported
}
