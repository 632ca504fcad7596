// Package tcxanalyzer turns TCX and FIT activity documents into per-activity
// summaries: distance, heart rate, pace, power, cadence and filtered
// elevation gain and loss.
package tcxanalyzer

import "time"

// TrainingCenterDatabase is one parsed activity document.
type TrainingCenterDatabase struct {
	Activities []Activity `json:"activities"`
}

// ActivityAt returns the activity at idx, if present.
func (db *TrainingCenterDatabase) ActivityAt(idx int) (*Activity, bool) {
	if db == nil || idx < 0 || idx >= len(db.Activities) {
		return nil, false
	}
	return &db.Activities[idx], true
}

// Activity is one recorded session: high level information plus its laps.
type Activity struct {
	Sport string `json:"sport"`

	// ID is usually the UTC start timestamp, but nothing guarantees that.
	ID      string  `json:"id"`
	Laps    []Lap   `json:"laps"`
	Creator Creator `json:"creator"`
}

// Creator names the device that recorded an activity.
type Creator struct {
	Name string `json:"name"`
}

// CreatorName returns the recording device name.
func (a *Activity) CreatorName() string {
	return a.Creator.Name
}

// LapCount returns the number of laps in the activity.
func (a *Activity) LapCount() int {
	return len(a.Laps)
}

// Lap is a contiguous timed segment of an activity.
type Lap struct {
	StartTime time.Time `json:"start_time"`
	Seconds   float64   `json:"total_time_seconds"`
	Calories  int       `json:"calories"`

	// Distance travelled in meters.
	Distance float64 `json:"distance_meters"`

	AverageHeartRate *int `json:"average_heart_rate_bpm,omitempty"`
	MaximumHeartRate *int `json:"maximum_heart_rate_bpm,omitempty"`

	Samples    []Sample       `json:"samples"`
	Extensions []LapExtension `json:"extensions,omitempty"`
}

// FirstExtension returns the lap's first extension block. Devices write at
// most one; any further blocks are ignored.
func (l *Lap) FirstExtension() *LapExtension {
	if len(l.Extensions) == 0 {
		return nil
	}
	return &l.Extensions[0]
}

// AverageCadence returns the first extension block's average cadence
// (single-foot steps per minute), or 0 when absent.
func (l *Lap) AverageCadence() int {
	if ext := l.FirstExtension(); ext != nil && ext.AvgCadence != nil {
		return *ext.AvgCadence
	}
	return 0
}

// AverageWatts returns the first extension block's average power, or 0 when absent.
func (l *Lap) AverageWatts() int {
	if ext := l.FirstExtension(); ext != nil && ext.AvgWatts != nil {
		return *ext.AvgWatts
	}
	return 0
}

// LapExtension carries device-computed lap aggregates.
type LapExtension struct {
	AvgSpeed float64 `json:"avg_speed"`

	// Cadence values count the steps of one foot. Doubling gives the usual
	// two-foot cadence.
	AvgCadence *int `json:"avg_run_cadence,omitempty"`
	MaxCadence *int `json:"max_run_cadence,omitempty"`

	AvgWatts *int `json:"avg_watts,omitempty"`
	MaxWatts *int `json:"max_watts,omitempty"`
}

// Sample is one trackpoint: an instantaneous sensor reading within a lap.
type Sample struct {
	Time      time.Time `json:"time"`
	HeartRate *int      `json:"heart_rate_bpm,omitempty"`

	// Cumulative distance in meters.
	Distance float64   `json:"distance_meters"`
	Altitude *float64  `json:"altitude_meters,omitempty"`
	Position *Position `json:"position,omitempty"`

	Extensions []SampleExtension `json:"extensions,omitempty"`
}

// Position is a WGS84 coordinate in degrees.
type Position struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// SampleExtension carries optional per-sample sensor values.
type SampleExtension struct {
	Speed *float64 `json:"speed,omitempty"`

	// Single-foot steps per minute.
	Cadence *int `json:"run_cadence,omitempty"`
	Watts   *int `json:"watts,omitempty"`
}

// Unlike laps, every extension block of a sample is consulted: the first
// block carrying a value wins.

// Speed returns the instantaneous speed from the sample's extensions.
func (s *Sample) Speed() (float64, bool) {
	for _, ext := range s.Extensions {
		if ext.Speed != nil {
			return *ext.Speed, true
		}
	}
	return 0, false
}

// Cadence returns the single-foot cadence from the sample's extensions.
func (s *Sample) Cadence() (int, bool) {
	for _, ext := range s.Extensions {
		if ext.Cadence != nil {
			return *ext.Cadence, true
		}
	}
	return 0, false
}

// Watts returns the instantaneous power from the sample's extensions.
func (s *Sample) Watts() (int, bool) {
	for _, ext := range s.Extensions {
		if ext.Watts != nil {
			return *ext.Watts, true
		}
	}
	return 0, false
}
