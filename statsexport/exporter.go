package statsexport

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
)

var csvHeader = []string{
	"index", "id", "sport", "creator", "laps", "distance_mi", "distance_km",
	"average_hr_bpm", "average_pace", "average_pace_seconds_per_mile",
	"average_power_w", "average_cadence_spm", "elevation_gain_ft", "elevation_loss_ft",
}

// Checksum returns the hex SHA-256 of data.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EnsureParentDir creates the directory that will hold path.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return nil
}

// MarshalManifest renders m as indented JSON bytes.
func MarshalManifest(m Manifest) ([]byte, error) {
	if m.FormatVersion == "" {
		m.FormatVersion = FormatVersion
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteJSONL writes one JSON object per activity, in order.
func WriteJSONL(path string, stats []tcxanalyzer.ActivityStats) error {
	data, err := MarshalJSONL(stats)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// MarshalJSONL renders stats as JSONL bytes.
func MarshalJSONL(stats []tcxanalyzer.ActivityStats) ([]byte, error) {
	var buf bytes.Buffer
	w := bufio.NewWriterSize(&buf, 1<<16)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, s := range stats {
		if err := enc.Encode(s); err != nil {
			return nil, err
		}
	}
	if err := w.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes a header row plus one row per activity.
func WriteCSV(path string, stats []tcxanalyzer.ActivityStats) error {
	data, err := MarshalCSV(stats)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// MarshalCSV renders stats as CSV bytes.
func MarshalCSV(stats []tcxanalyzer.ActivityStats) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCSV(&buf, stats); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCSV(out io.Writer, stats []tcxanalyzer.ActivityStats) error {
	w := csv.NewWriter(out)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for i, s := range stats {
		row := []string{
			strconv.Itoa(i),
			s.ID,
			s.Sport,
			s.Creator,
			strconv.Itoa(s.Laps),
			formatFloat(s.DistanceMiles),
			formatFloat(s.DistanceKilometers),
			strconv.Itoa(s.AverageHeartRate),
			s.AveragePace,
			strconv.FormatInt(s.PaceSecondsPerMile, 10),
			strconv.Itoa(s.AverageWatts),
			strconv.Itoa(s.AverageCadence),
			strconv.Itoa(s.ElevationGainFeet),
			strconv.Itoa(s.ElevationLossFeet),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writeFile(path string, data []byte) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
