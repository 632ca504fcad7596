package tcxanalyzer

import (
	"fmt"
	"math"
	"time"
)

// ZeroPace is the pace shown when an activity has no usable distance/time.
const ZeroPace = "00:00 / mi"

// ActivityStats is the derived summary of one activity. Built once by
// BuildStats and not modified afterwards.
type ActivityStats struct {
	ID                  string        `json:"id"`
	Sport               string        `json:"sport"`
	Creator             string        `json:"creator"`
	Laps                int           `json:"laps"`
	DistanceMiles       float64       `json:"distance_mi"`
	DistanceKilometers  float64       `json:"distance_km"`
	AverageHeartRate    int           `json:"average_hr_bpm"`
	AveragePace         string        `json:"average_pace"`
	AveragePaceDuration time.Duration `json:"-"`
	PaceSecondsPerMile  int64         `json:"average_pace_seconds_per_mile"`
	AverageWatts        int           `json:"average_power_w"`
	AverageCadence      int           `json:"average_cadence_spm"`
	ElevationGainFeet   int           `json:"elevation_gain_ft"`
	ElevationLossFeet   int           `json:"elevation_loss_ft"`
}

// BuildStats reduces an analyzed activity into its summary record.
//
// Every averaged metric (heart rate, pace, cadence, power) falls back to 0
// when there is nothing to average over, including activities with no laps.
func BuildStats(a *AnalyzedActivity) ActivityStats {
	if a == nil || a.Activity == nil {
		return ActivityStats{AveragePace: ZeroPace}
	}
	act := a.Activity

	distanceM := totalDistanceMeters(act)
	paceDur := averagePaceDuration(act)

	return ActivityStats{
		ID:                  act.ID,
		Sport:               act.Sport,
		Creator:             act.CreatorName(),
		Laps:                act.LapCount(),
		DistanceMiles:       distanceM * MilesPerMeter,
		DistanceKilometers:  distanceM / 1000.0,
		AverageHeartRate:    averageHeartRate(act),
		AveragePace:         formatPace(paceDur),
		AveragePaceDuration: paceDur,
		PaceSecondsPerMile:  int64(paceDur / time.Second),
		AverageWatts:        averageWatts(act),
		AverageCadence:      averageCadence(act),
		ElevationGainFeet:   metersToFeet(a.TotalGainMeters()),
		ElevationLossFeet:   metersToFeet(a.TotalLossMeters()),
	}
}

func totalDistanceMeters(a *Activity) float64 {
	total := 0.0
	for i := range a.Laps {
		total += a.Laps[i].Distance
	}
	return total
}

// averageHeartRate weights every heart-rate reading equally across laps,
// rather than averaging per-lap averages.
func averageHeartRate(a *Activity) int {
	if a.LapCount() == 0 {
		return 0
	}
	total, count := 0, 0
	for i := range a.Laps {
		for j := range a.Laps[i].Samples {
			if hr := a.Laps[i].Samples[j].HeartRate; hr != nil {
				total += *hr
				count++
			}
		}
	}
	if count == 0 {
		return 0
	}
	return total / count
}

// averagePaceMetersPerSecond is total distance over total time, not a mean
// of lap paces.
func averagePaceMetersPerSecond(a *Activity) float64 {
	if a.LapCount() == 0 {
		return 0
	}
	distance, seconds := 0.0, 0.0
	for i := range a.Laps {
		distance += a.Laps[i].Distance
		seconds += a.Laps[i].Seconds
	}
	if seconds <= 0 {
		return 0
	}
	return distance / seconds
}

const maxPaceSeconds = float64(math.MaxInt64 / int64(time.Second))

func averagePaceDuration(a *Activity) time.Duration {
	mps := safePositive(averagePaceMetersPerSecond(a))
	if mps == 0 {
		return 0
	}
	secondsPerMile := math.Round(MetersPerMile / mps)
	// Paces too slow for a time.Duration are reported like a standstill.
	if !isFinite(secondsPerMile) || secondsPerMile > maxPaceSeconds {
		return 0
	}
	return time.Duration(secondsPerMile) * time.Second
}

func formatPace(d time.Duration) string {
	if d <= 0 {
		return ZeroPace
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d / mi", secs/60, secs%60)
}

// averageCadence averages the lap cadences (integer division) and doubles
// the single-foot value.
func averageCadence(a *Activity) int {
	laps := a.LapCount()
	if laps == 0 {
		return 0
	}
	total := 0
	for i := range a.Laps {
		total += a.Laps[i].AverageCadence()
	}
	return (total / laps) * 2
}

func averageWatts(a *Activity) int {
	laps := a.LapCount()
	if laps == 0 {
		return 0
	}
	total := 0
	for i := range a.Laps {
		total += a.Laps[i].AverageWatts()
	}
	return total / laps
}

func metersToFeet(m float64) int {
	return int(math.Round(m * FeetPerMeter))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func safePositive(v float64) float64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	return v
}
