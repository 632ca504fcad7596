package tcxanalyzer

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// ErrIncompleteDocument reports a TCX document that is well-formed XML but
// lacks a field the model requires.
var ErrIncompleteDocument = errors.New("incomplete tcx document")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type xmlDatabase struct {
	XMLName    xml.Name       `xml:"TrainingCenterDatabase"`
	Activities *xmlActivities `xml:"Activities"`
}

type xmlActivities struct {
	Activity []xmlActivity `xml:"Activity"`
}

type xmlActivity struct {
	Sport   string      `xml:"Sport,attr"`
	ID      string      `xml:"Id"`
	Laps    []xmlLap    `xml:"Lap"`
	Creator *xmlCreator `xml:"Creator"`
}

type xmlCreator struct {
	Name string `xml:"Name"`
}

type xmlLap struct {
	StartTime        string             `xml:"StartTime,attr"`
	TotalTimeSeconds xmlFloat           `xml:"TotalTimeSeconds"`
	DistanceMeters   xmlFloat           `xml:"DistanceMeters"`
	Calories         xmlInt             `xml:"Calories"`
	AverageHR        *xmlHeartRate      `xml:"AverageHeartRateBpm"`
	MaximumHR        *xmlHeartRate      `xml:"MaximumHeartRateBpm"`
	Tracks           []xmlTrack         `xml:"Track"`
	Extensions       []xmlLapExtensions `xml:"Extensions"`
}

type xmlHeartRate struct {
	Value xmlInt `xml:"Value"`
}

type xmlTrack struct {
	Trackpoints []xmlTrackpoint `xml:"Trackpoint"`
}

type xmlLapExtensions struct {
	LX *xmlLX `xml:"LX"`
}

type xmlLX struct {
	AvgSpeed      xmlFloat `xml:"AvgSpeed"`
	AvgRunCadence xmlInt   `xml:"AvgRunCadence"`
	MaxRunCadence xmlInt   `xml:"MaxRunCadence"`
	AvgWatts      xmlInt   `xml:"AvgWatts"`
	MaxWatts      xmlInt   `xml:"MaxWatts"`
}

type xmlTrackpoint struct {
	Time           string                    `xml:"Time"`
	HeartRate      *xmlHeartRate             `xml:"HeartRateBpm"`
	DistanceMeters xmlFloat                  `xml:"DistanceMeters"`
	AltitudeMeters xmlFloat                  `xml:"AltitudeMeters"`
	Position       *xmlPosition              `xml:"Position"`
	Extensions     []xmlTrackpointExtensions `xml:"Extensions"`
}

type xmlPosition struct {
	LatitudeDegrees  xmlFloat `xml:"LatitudeDegrees"`
	LongitudeDegrees xmlFloat `xml:"LongitudeDegrees"`
}

type xmlTrackpointExtensions struct {
	TPX []xmlTPX `xml:"TPX"`
}

type xmlTPX struct {
	Speed      xmlFloat `xml:"Speed"`
	RunCadence xmlInt   `xml:"RunCadence"`
	Watts      xmlInt   `xml:"Watts"`
}

// xmlFloat is an optional decimal element. Empty, non-numeric and
// non-finite text leaves it unset.
type xmlFloat struct {
	value float64
	set   bool
}

func (f *xmlFloat) UnmarshalText(text []byte) error {
	*f = xmlFloat{}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(text)), 64)
	if err != nil || !isFinite(v) {
		return nil
	}
	*f = xmlFloat{value: v, set: true}
	return nil
}

func (f xmlFloat) ptr() *float64 {
	if !f.set {
		return nil
	}
	v := f.value
	return &v
}

// xmlInt is an optional integer element. Devices occasionally write
// integral readings as decimals ("85.0"); those are rounded.
type xmlInt struct {
	value int
	set   bool
}

func (n *xmlInt) UnmarshalText(text []byte) error {
	*n = xmlInt{}
	s := strings.TrimSpace(string(text))
	if v, err := strconv.Atoi(s); err == nil {
		*n = xmlInt{value: v, set: true}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(v) || math.Abs(v) > math.MaxInt32 {
		return nil
	}
	*n = xmlInt{value: int(math.Round(v)), set: true}
	return nil
}

func (n xmlInt) ptr() *int {
	if !n.set {
		return nil
	}
	v := n.value
	return &v
}

// ParseTCXFile reads and decodes a TCX file.
func ParseTCXFile(path string) (*TrainingCenterDatabase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tcx file: %w", err)
	}
	return ParseTCXBytes(data)
}

// ParseTCX decodes a TCX document from r.
func ParseTCX(r io.Reader) (*TrainingCenterDatabase, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read tcx: %w", err)
	}
	return ParseTCXBytes(data)
}

// ParseTCXBytes decodes a TCX document held in memory.
func ParseTCXBytes(data []byte) (*TrainingCenterDatabase, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var raw xmlDatabase
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode tcx: %w", err)
	}
	return raw.toModel()
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	case "us-ascii", "ascii":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}

func (raw *xmlDatabase) toModel() (*TrainingCenterDatabase, error) {
	if raw.Activities == nil {
		return nil, fmt.Errorf("%w: missing Activities", ErrIncompleteDocument)
	}
	db := &TrainingCenterDatabase{
		Activities: make([]Activity, 0, len(raw.Activities.Activity)),
	}
	for i := range raw.Activities.Activity {
		act, err := raw.Activities.Activity[i].toModel()
		if err != nil {
			return nil, fmt.Errorf("activity %d: %w", i, err)
		}
		db.Activities = append(db.Activities, act)
	}
	return db, nil
}

func (raw *xmlActivity) toModel() (Activity, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return Activity{}, fmt.Errorf("%w: missing Id", ErrIncompleteDocument)
	}
	act := Activity{
		Sport: raw.Sport,
		ID:    id,
		Laps:  make([]Lap, 0, len(raw.Laps)),
	}
	if raw.Creator != nil {
		act.Creator.Name = strings.TrimSpace(raw.Creator.Name)
	}
	for i := range raw.Laps {
		lap, err := raw.Laps[i].toModel()
		if err != nil {
			return Activity{}, fmt.Errorf("lap %d: %w", i, err)
		}
		act.Laps = append(act.Laps, lap)
	}
	return act, nil
}

func (raw *xmlLap) toModel() (Lap, error) {
	if strings.TrimSpace(raw.StartTime) == "" {
		return Lap{}, fmt.Errorf("%w: missing StartTime", ErrIncompleteDocument)
	}
	start, err := parseTime(raw.StartTime)
	if err != nil {
		return Lap{}, fmt.Errorf("parse StartTime: %w", err)
	}
	if !raw.TotalTimeSeconds.set {
		return Lap{}, fmt.Errorf("%w: missing TotalTimeSeconds", ErrIncompleteDocument)
	}
	if !raw.DistanceMeters.set {
		return Lap{}, fmt.Errorf("%w: missing DistanceMeters", ErrIncompleteDocument)
	}

	lap := Lap{
		StartTime:        start,
		Seconds:          raw.TotalTimeSeconds.value,
		Calories:         raw.Calories.value,
		Distance:         raw.DistanceMeters.value,
		AverageHeartRate: heartRateValue(raw.AverageHR),
		MaximumHeartRate: heartRateValue(raw.MaximumHR),
	}

	// Some devices split a lap into several Track elements; samples keep
	// document order.
	for _, track := range raw.Tracks {
		for i := range track.Trackpoints {
			s, err := track.Trackpoints[i].toModel()
			if err != nil {
				return Lap{}, fmt.Errorf("trackpoint %d: %w", len(lap.Samples), err)
			}
			lap.Samples = append(lap.Samples, s)
		}
	}

	// Blocks stay positional: one without LX still occupies its slot, so
	// FirstExtension never falls through to a later block.
	for _, ext := range raw.Extensions {
		var le LapExtension
		if lx := ext.LX; lx != nil {
			le = LapExtension{
				AvgSpeed:   lx.AvgSpeed.value,
				AvgCadence: lx.AvgRunCadence.ptr(),
				MaxCadence: lx.MaxRunCadence.ptr(),
				AvgWatts:   lx.AvgWatts.ptr(),
				MaxWatts:   lx.MaxWatts.ptr(),
			}
		}
		lap.Extensions = append(lap.Extensions, le)
	}
	return lap, nil
}

func (raw *xmlTrackpoint) toModel() (Sample, error) {
	if strings.TrimSpace(raw.Time) == "" {
		return Sample{}, fmt.Errorf("%w: missing Time", ErrIncompleteDocument)
	}
	ts, err := parseTime(raw.Time)
	if err != nil {
		return Sample{}, fmt.Errorf("parse Time: %w", err)
	}

	s := Sample{
		Time:      ts,
		HeartRate: heartRateValue(raw.HeartRate),
		Altitude:  raw.AltitudeMeters.ptr(),
		Distance:  raw.DistanceMeters.value,
	}
	if p := raw.Position; p != nil && p.LatitudeDegrees.set && p.LongitudeDegrees.set {
		s.Position = &Position{
			Lat:  p.LatitudeDegrees.value,
			Long: p.LongitudeDegrees.value,
		}
	}
	for _, ext := range raw.Extensions {
		for _, tpx := range ext.TPX {
			s.Extensions = append(s.Extensions, SampleExtension{
				Speed:   tpx.Speed.ptr(),
				Cadence: tpx.RunCadence.ptr(),
				Watts:   tpx.Watts.ptr(),
			})
		}
	}
	return s, nil
}

func heartRateValue(hr *xmlHeartRate) *int {
	if hr == nil {
		return nil
	}
	return hr.Value.ptr()
}

func parseTime(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
