package tcxanalyzer

import "math"

// LapElevation is the elevation filter output for one lap, in meters.
type LapElevation struct {
	LastAltitude float64 `json:"last_altitude_m"`
	GainMeters   float64 `json:"gain_m"`
	LossMeters   float64 `json:"loss_m"`
}

// AnalyzedActivity pairs a parsed activity with its per-lap elevation
// totals. Elevation[i] belongs to Activity.Laps[i].
type AnalyzedActivity struct {
	Activity  *Activity      `json:"activity"`
	Elevation []LapElevation `json:"elevation"`
}

// Analyze runs the elevation filter over every lap of a. The activity is
// not modified, so calling Analyze again yields the same result.
func Analyze(a *Activity) *AnalyzedActivity {
	out := &AnalyzedActivity{Activity: a}
	if a == nil {
		return out
	}
	out.Elevation = make([]LapElevation, len(a.Laps))
	for i := range a.Laps {
		out.Elevation[i] = ComputeElevation(&a.Laps[i])
	}
	return out
}

// ComputeElevation filters the lap's altitude readings into gain and loss
// totals using AltitudeThreshold.
//
// The reference altitude starts at the first sample (0 when unknown) and only
// moves when a reading differs from it by at least the threshold. Samples
// without altitude are skipped entirely. Samples are assumed to be in
// chronological order.
func ComputeElevation(lap *Lap) LapElevation {
	return computeElevation(lap, AltitudeThreshold)
}

func computeElevation(lap *Lap, threshold float64) LapElevation {
	var out LapElevation
	if lap == nil || len(lap.Samples) == 0 {
		return out
	}
	if alt := lap.Samples[0].Altitude; alt != nil {
		out.LastAltitude = *alt
	}

	for i := range lap.Samples {
		alt := lap.Samples[i].Altitude
		if alt == nil {
			continue
		}
		delta := math.Abs(*alt - out.LastAltitude)
		if delta < threshold {
			continue
		}
		if *alt > out.LastAltitude {
			out.GainMeters += delta
		} else {
			out.LossMeters += delta
		}
		out.LastAltitude = *alt
	}
	return out
}

// TotalGainMeters sums gain across all laps.
func (a *AnalyzedActivity) TotalGainMeters() float64 {
	total := 0.0
	for _, e := range a.Elevation {
		total += e.GainMeters
	}
	return total
}

// TotalLossMeters sums loss across all laps.
func (a *AnalyzedActivity) TotalLossMeters() float64 {
	total := 0.0
	for _, e := range a.Elevation {
		total += e.LossMeters
	}
	return total
}
