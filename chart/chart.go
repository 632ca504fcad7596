// Package chart renders the pace / heart-rate comparison chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
)

const (
	DefaultWidth  = 1024
	DefaultHeight = 768
	DefaultTitle  = "Avg pace vs. Avg heart rate"
)

// ErrNoData is returned when there are no activities to plot.
var ErrNoData = errors.New("chart: no activities to plot")

// Options controls chart geometry.
type Options struct {
	Width  int
	Height int
	Title  string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	return o
}

// RenderFile renders the chart as a PNG at path, creating its directory.
func RenderFile(path string, stats []tcxanalyzer.ActivityStats, opts Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := Render(f, stats, opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Render draws pace (left axis, seconds per mile) and average heart rate
// (right axis) against activity number and writes a PNG to w.
func Render(w io.Writer, stats []tcxanalyzer.ActivityStats, opts Options) error {
	if len(stats) == 0 {
		return ErrNoData
	}
	opts = opts.withDefaults()

	pace := tcxanalyzer.PaceSeries(stats)
	hr := tcxanalyzer.HeartRateSeries(stats)

	graph := gochart.Chart{
		Title:  opts.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:  "Activity number",
			Range: &gochart.ContinuousRange{Min: 0, Max: xMax(len(stats))},
		},
		YAxis: gochart.YAxis{
			Name:  "Pace (seconds per mile)",
			Range: paddedRange(pace),
		},
		YAxisSecondary: gochart.YAxis{
			Name:  "Heart rate",
			Range: paddedRange(hr),
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Seconds per mile",
				XValues: xValues(pace),
				YValues: yValues(pace),
				Style:   gochart.Style{StrokeColor: drawing.ColorBlue, StrokeWidth: 2},
			},
			gochart.ContinuousSeries{
				Name:    "Heart rate",
				YAxis:   gochart.YAxisSecondary,
				XValues: xValues(hr),
				YValues: yValues(hr),
				Style:   gochart.Style{StrokeColor: drawing.ColorRed, StrokeWidth: 2},
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// xMax keeps the x range non-empty for a single activity.
func xMax(n int) float64 {
	if n < 2 {
		return 1
	}
	return float64(n - 1)
}

// paddedRange widens the value range so flat series still plot.
func paddedRange(points []tcxanalyzer.Point) *gochart.ContinuousRange {
	lo, hi := points[0].Value, points[0].Value
	for _, p := range points[1:] {
		if p.Value < lo {
			lo = p.Value
		}
		if p.Value > hi {
			hi = p.Value
		}
	}
	pad := (hi - lo) * 0.1
	if pad < 5 {
		pad = 5
	}
	floor := lo - pad
	if floor < 0 {
		floor = 0
	}
	return &gochart.ContinuousRange{Min: floor, Max: hi + pad}
}

func xValues(points []tcxanalyzer.Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = float64(p.Index)
	}
	return out
}

func yValues(points []tcxanalyzer.Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
