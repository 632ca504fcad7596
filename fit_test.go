package tcxanalyzer

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tormoder/fit"
)

var fitStart = time.Date(2024, 3, 9, 6, 30, 0, 0, time.UTC)

func buildTestFIT(t *testing.T, withLaps bool) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	require.NoError(t, err)
	file.FileId.Manufacturer = fit.ManufacturerGarmin

	activity, err := file.Activity()
	require.NoError(t, err)

	session := fit.NewSessionMsg()
	session.Timestamp = fitStart.Add(10 * time.Minute)
	session.StartTime = fitStart
	session.Sport = fit.SportRunning
	activity.Sessions = append(activity.Sessions, session)

	if withLaps {
		for i, cadence := range []uint8{80, 84} {
			lap := fit.NewLapMsg()
			lap.StartTime = fitStart.Add(time.Duration(i) * 5 * time.Minute)
			lap.Timestamp = lap.StartTime.Add(5 * time.Minute)
			lap.TotalTimerTime = 300000
			lap.TotalElapsedTime = 300000
			lap.TotalDistance = 100000
			lap.TotalCalories = 60
			lap.AvgHeartRate = 150
			lap.MaxHeartRate = 165
			lap.AvgCadence = cadence
			lap.AvgPower = 230
			activity.Laps = append(activity.Laps, lap)
		}
	}

	for i, offset := range []time.Duration{0, time.Minute, 5 * time.Minute, 6 * time.Minute} {
		record := fit.NewRecordMsg()
		record.Timestamp = fitStart.Add(offset)
		record.HeartRate = uint8(140 + i*5)
		record.Power = 240
		record.Cadence = 82
		record.Distance = uint32(i) * 25000
		record.Altitude = uint16((100 + 500) * 5)
		activity.Records = append(activity.Records, record)
	}

	var buf bytes.Buffer
	require.NoError(t, fit.Encode(&buf, file, binary.LittleEndian))
	return buf.Bytes()
}

func TestParseFITBytesWithLaps(t *testing.T) {
	db, err := ParseFITBytes(buildTestFIT(t, true))
	require.NoError(t, err)

	act, ok := db.ActivityAt(0)
	require.True(t, ok)
	assert.Equal(t, fitStart.Format(time.RFC3339), act.ID)
	assert.Equal(t, fit.SportRunning.String(), act.Sport)
	assert.Contains(t, act.CreatorName(), fit.ManufacturerGarmin.String())
	require.Len(t, act.Laps, 2)

	for _, lap := range act.Laps {
		assert.InDelta(t, 300.0, lap.Seconds, 1e-9)
		assert.InDelta(t, 1000.0, lap.Distance, 1e-9)
		assert.Equal(t, 60, lap.Calories)
		require.NotNil(t, lap.AverageHeartRate)
		assert.Equal(t, 150, *lap.AverageHeartRate)
		assert.Equal(t, 230, lap.AverageWatts())
		// Records split on the second lap's start time.
		assert.Len(t, lap.Samples, 2)
	}
	assert.Equal(t, 80, act.Laps[0].AverageCadence())
	assert.Equal(t, 84, act.Laps[1].AverageCadence())

	s := act.Laps[0].Samples[1]
	require.NotNil(t, s.HeartRate)
	assert.Equal(t, 145, *s.HeartRate)
	assert.InDelta(t, 250.0, s.Distance, 1e-9)
	require.NotNil(t, s.Altitude)
	assert.InDelta(t, 100.0, *s.Altitude, 1e-9)
	watts, ok := s.Watts()
	require.True(t, ok)
	assert.Equal(t, 240, watts)
	assert.Nil(t, s.Position)

	stats := BuildStats(Analyze(act))
	assert.Equal(t, 164, stats.AverageCadence)
	assert.Equal(t, 230, stats.AverageWatts)
}

func TestParseFITBytesWithoutLapsBuildsSyntheticLap(t *testing.T) {
	db, err := ParseFITBytes(buildTestFIT(t, false))
	require.NoError(t, err)

	act, ok := db.ActivityAt(0)
	require.True(t, ok)
	require.Len(t, act.Laps, 1)
	lap := act.Laps[0]
	assert.Equal(t, fitStart, lap.StartTime)
	assert.InDelta(t, 360.0, lap.Seconds, 1e-9)
	assert.InDelta(t, 750.0, lap.Distance, 1e-9)
	assert.Len(t, lap.Samples, 4)
	assert.Nil(t, lap.FirstExtension())
}

func TestParseFITBytesRejectsGarbage(t *testing.T) {
	_, err := ParseFITBytes([]byte("definitely not a fit file"))
	require.Error(t, err)
}

func TestFITSentinels(t *testing.T) {
	assert.Nil(t, optionalUint8(math.MaxUint8))
	assert.Equal(t, 7, *optionalUint8(7))
	assert.Nil(t, optionalUint16(math.MaxUint16))
	assert.Equal(t, uint16(0), validUint16(math.MaxUint16))
	assert.Nil(t, optionalCadence("80"))
	assert.Equal(t, 90, *optionalCadence(uint8(90)))
	assert.True(t, validTimeOrZero(time.Time{}).IsZero())
}
