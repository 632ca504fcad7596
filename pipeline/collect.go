package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	formatTCX = "tcx"
	formatFIT = "fit"
)

// Collect returns every .tcx and .fit file under dir, recursively, in
// lexical path order.
func Collect(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotDirectory, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if sourceFormat(path) != "" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	return paths, nil
}

// sourceFormat returns the input format for path, or "" when unsupported.
func sourceFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tcx":
		return formatTCX
	case ".fit":
		return formatFIT
	default:
		return ""
	}
}
