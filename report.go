package tcxanalyzer

import (
	"fmt"
	"io"
	"strings"
)

const reportSeparator = "================================\n\n"

// Lines returns the report block for one activity.
func (s ActivityStats) Lines() []string {
	return []string{
		fmt.Sprintf("=== %s ===", s.ID),
		fmt.Sprintf("  Total laps: %d", s.Laps),
		fmt.Sprintf("  Distance: %.2fmi / %.2fkm", s.DistanceMiles, s.DistanceKilometers),
		fmt.Sprintf("  Average HR: %d", s.AverageHeartRate),
		fmt.Sprintf("  Average Pace: %s", s.AveragePace),
		fmt.Sprintf("  Average Power: %dW", s.AverageWatts),
		fmt.Sprintf("  Average Cadence: %d steps/min", s.AverageCadence),
		fmt.Sprintf("  Elevation Gain: %d", s.ElevationGainFeet),
		fmt.Sprintf("  Elevation Loss: %d", s.ElevationLossFeet),
		reportSeparator,
	}
}

// String renders the report block.
func (s ActivityStats) String() string {
	return strings.Join(s.Lines(), "\n")
}

// WriteTo writes the report block to w.
func (s ActivityStats) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, s.String())
	return int64(n), err
}

// WriteReport writes one block per activity, in order.
func WriteReport(w io.Writer, stats []ActivityStats) error {
	for _, s := range stats {
		if _, err := s.WriteTo(w); err != nil {
			return fmt.Errorf("write report block %q: %w", s.ID, err)
		}
	}
	return nil
}

// Point is one chart sample keyed by the activity's position in the sorted
// sequence.
type Point struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// PaceSeries returns (index, pace seconds per mile) points.
func PaceSeries(stats []ActivityStats) []Point {
	out := make([]Point, len(stats))
	for i, s := range stats {
		out[i] = Point{Index: i, Value: float64(s.PaceSecondsPerMile)}
	}
	return out
}

// HeartRateSeries returns (index, average heart rate) points.
func HeartRateSeries(stats []ActivityStats) []Point {
	out := make([]Point, len(stats))
	for i, s := range stats {
		out[i] = Point{Index: i, Value: float64(s.AverageHeartRate)}
	}
	return out
}
