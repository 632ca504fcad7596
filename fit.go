package tcxanalyzer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tormoder/fit"
)

// ErrNoFITActivity reports a FIT file that decodes but holds no timed data.
var ErrNoFITActivity = errors.New("fit file has no activity data")

// ParseFITFile reads a FIT activity file and converts it into the TCX model.
func ParseFITFile(path string) (*TrainingCenterDatabase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FIT file: %w", err)
	}
	defer f.Close()
	return DecodeFIT(f)
}

// ParseFITBytes converts in-memory FIT bytes into the TCX model.
func ParseFITBytes(data []byte) (*TrainingCenterDatabase, error) {
	return DecodeFIT(bytes.NewReader(data))
}

// DecodeFIT decodes a FIT activity file into a one-activity document.
//
// Records are assigned to the lap whose start time most recently precedes
// them. Invalid FIT sentinels are dropped rather than reported as zero.
func DecodeFIT(r io.Reader) (*TrainingCenterDatabase, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	records := sortedRecords(activity.Records)
	act := Activity{
		Creator: Creator{Name: fitCreatorName(decoded)},
	}

	var start time.Time
	if len(activity.Sessions) > 0 && activity.Sessions[0] != nil {
		session := activity.Sessions[0]
		act.Sport = fmt.Sprint(session.Sport)
		start = validTimeOrZero(session.StartTime)
	}
	if start.IsZero() && len(activity.Laps) > 0 && activity.Laps[0] != nil {
		start = validTimeOrZero(activity.Laps[0].StartTime)
	}
	if start.IsZero() && len(records) > 0 {
		start = validTimeOrZero(records[0].Timestamp)
	}
	if start.IsZero() {
		return nil, ErrNoFITActivity
	}
	act.ID = start.UTC().Format(time.RFC3339)

	act.Laps = buildFITLaps(activity.Laps, start)
	if len(act.Laps) == 0 && len(records) > 0 {
		act.Laps = []Lap{syntheticLap(records, start)}
	}
	assignRecords(act.Laps, records)

	return &TrainingCenterDatabase{Activities: []Activity{act}}, nil
}

func fitCreatorName(f *fit.File) string {
	if f.FileId.Manufacturer == fit.ManufacturerInvalid {
		return ""
	}
	name := f.FileId.Manufacturer.String()
	if f.FileId.Product != math.MaxUint16 {
		name += " " + fmt.Sprint(f.FileId.GetProduct())
	}
	return strings.TrimSpace(name)
}

func sortedRecords(records []*fit.RecordMsg) []*fit.RecordMsg {
	out := make([]*fit.RecordMsg, 0, len(records))
	for _, rec := range records {
		if rec == nil || validTimeOrZero(rec.Timestamp).IsZero() {
			continue
		}
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func buildFITLaps(laps []*fit.LapMsg, fallbackStart time.Time) []Lap {
	out := make([]Lap, 0, len(laps))
	for _, msg := range laps {
		if msg == nil {
			continue
		}
		start := validTimeOrZero(msg.StartTime)
		if start.IsZero() {
			start = fallbackStart
		}
		seconds := safePositive(msg.GetTotalTimerTimeScaled())
		if seconds == 0 {
			seconds = safePositive(msg.GetTotalElapsedTimeScaled())
		}

		lap := Lap{
			StartTime:        start.UTC(),
			Seconds:          seconds,
			Calories:         int(validUint16(msg.TotalCalories)),
			Distance:         safePositive(msg.GetTotalDistanceScaled()),
			AverageHeartRate: optionalUint8(msg.AvgHeartRate),
			MaximumHeartRate: optionalUint8(msg.MaxHeartRate),
		}

		ext := LapExtension{
			AvgSpeed:   safePositive(msg.GetEnhancedAvgSpeedScaled()),
			AvgCadence: optionalCadence(msg.GetAvgCadence()),
			MaxCadence: optionalCadence(msg.GetMaxCadence()),
			AvgWatts:   optionalUint16(msg.AvgPower),
			MaxWatts:   optionalUint16(msg.MaxPower),
		}
		if ext.AvgSpeed == 0 {
			ext.AvgSpeed = safePositive(msg.GetAvgSpeedScaled())
		}
		if ext.AvgSpeed > 0 || ext.AvgCadence != nil || ext.AvgWatts != nil {
			lap.Extensions = []LapExtension{ext}
		}
		out = append(out, lap)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// syntheticLap covers files that carry records but no lap messages.
func syntheticLap(records []*fit.RecordMsg, start time.Time) Lap {
	last := records[len(records)-1]
	lap := Lap{StartTime: start.UTC()}
	if d := last.Timestamp.Sub(start).Seconds(); d > 0 {
		lap.Seconds = d
	}
	for i := len(records) - 1; i >= 0; i-- {
		if d := safePositive(records[i].GetDistanceScaled()); d > 0 {
			lap.Distance = d
			break
		}
	}
	return lap
}

func assignRecords(laps []Lap, records []*fit.RecordMsg) {
	if len(laps) == 0 {
		return
	}
	idx := 0
	for _, rec := range records {
		for idx+1 < len(laps) && !rec.Timestamp.Before(laps[idx+1].StartTime) {
			idx++
		}
		laps[idx].Samples = append(laps[idx].Samples, sampleFromRecord(rec))
	}
}

func sampleFromRecord(rec *fit.RecordMsg) Sample {
	s := Sample{
		Time:      rec.Timestamp.UTC(),
		HeartRate: optionalUint8(rec.HeartRate),
		Distance:  safePositive(rec.GetDistanceScaled()),
	}

	alt := rec.GetEnhancedAltitudeScaled()
	if !isFinite(alt) {
		alt = rec.GetAltitudeScaled()
	}
	if isFinite(alt) {
		s.Altitude = &alt
	}

	if !rec.PositionLat.Invalid() && !rec.PositionLong.Invalid() {
		s.Position = &Position{
			Lat:  rec.PositionLat.Degrees(),
			Long: rec.PositionLong.Degrees(),
		}
	}

	ext := SampleExtension{
		Cadence: optionalUint8(rec.Cadence),
		Watts:   optionalUint16(rec.Power),
	}
	if speed, ok := extractSpeed(rec); ok {
		ext.Speed = &speed
	}
	if ext.Speed != nil || ext.Cadence != nil || ext.Watts != nil {
		s.Extensions = []SampleExtension{ext}
	}
	return s
}

func extractSpeed(rec *fit.RecordMsg) (float64, bool) {
	speed := rec.GetEnhancedSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	speed = rec.GetSpeedScaled()
	if isFinite(speed) && speed >= 0 {
		return speed, true
	}
	return 0, false
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func validUint16(v uint16) uint16 {
	if v == math.MaxUint16 {
		return 0
	}
	return v
}

func optionalUint8(v uint8) *int {
	if v == math.MaxUint8 {
		return nil
	}
	out := int(v)
	return &out
}

func optionalUint16(v uint16) *int {
	if v == math.MaxUint16 {
		return nil
	}
	out := int(v)
	return &out
}

func optionalCadence(v any) *int {
	switch x := v.(type) {
	case uint8:
		return optionalUint8(x)
	case uint16:
		return optionalUint16(x)
	default:
		return nil
	}
}
