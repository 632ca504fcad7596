package tcxanalyzer

import (
	"fmt"
	"math"
)

// SampleSummary describes a lap from its trackpoints rather than from the
// device-computed lap totals.
type SampleSummary struct {
	Samples int `json:"samples"`

	// Seconds between the first and last trackpoint.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	MaxHeartRate int `json:"max_hr_bpm"`

	// Speeds in meters per second, from trackpoint extensions.
	AverageSpeed float64 `json:"average_speed_mps"`
	MaxSpeed     float64 `json:"max_speed_mps"`

	// Two-foot steps per minute.
	AverageCadence int `json:"average_cadence_spm"`

	AverageWatts int `json:"average_power_w"`
	MaxWatts     int `json:"max_power_w"`
}

// SummarizeSamples reduces a lap's trackpoints. Readings a sample does not
// carry are left out of the corresponding average.
func SummarizeSamples(lap *Lap) SampleSummary {
	var out SampleSummary
	if lap == nil || len(lap.Samples) == 0 {
		return out
	}
	out.Samples = len(lap.Samples)

	first, last := lap.Samples[0].Time, lap.Samples[len(lap.Samples)-1].Time
	if !first.IsZero() && last.After(first) {
		out.ElapsedSeconds = last.Sub(first).Seconds()
	}

	var hr, speed, cadence, watts []float64
	for i := range lap.Samples {
		s := &lap.Samples[i]
		if s.HeartRate != nil {
			hr = append(hr, float64(*s.HeartRate))
		}
		if v, ok := s.Speed(); ok {
			speed = append(speed, v)
		}
		if v, ok := s.Cadence(); ok {
			cadence = append(cadence, float64(v))
		}
		if v, ok := s.Watts(); ok {
			watts = append(watts, float64(v))
		}
	}

	out.MaxHeartRate = int(maxValue(hr))
	out.AverageSpeed = average(speed)
	out.MaxSpeed = maxValue(speed)
	out.AverageCadence = int(math.Round(average(cadence))) * 2
	out.AverageWatts = int(math.Round(average(watts)))
	out.MaxWatts = int(maxValue(watts))
	return out
}

// FormatDuration renders seconds as "1h02m03s", "4m05s" or "6s".
func FormatDuration(seconds float64) string {
	if !isFinite(seconds) || seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

func average(values []float64) float64 {
	total := 0.0
	count := 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		total += v
		count++
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func maxValue(values []float64) float64 {
	best := 0.0
	found := false
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best
}
