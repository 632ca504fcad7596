package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/chart"
	"github.com/lucasjlepore/tcx-analyzer/statsexport"
)

type inspection struct {
	Stats tcxanalyzer.ActivityStats `json:"stats"`
	Laps  []lapSummary              `json:"laps"`
}

type lapSummary struct {
	Index            int     `json:"index"`
	StartTime        string  `json:"start_time"`
	Seconds          float64 `json:"total_time_seconds"`
	DistanceMeters   float64 `json:"distance_meters"`
	AverageHeartRate *int    `json:"average_hr_bpm,omitempty"`
	AverageCadence   int     `json:"average_cadence_spm"`
	AverageWatts     int     `json:"average_power_w"`
	GainMeters       float64 `json:"elevation_gain_m"`
	LossMeters       float64 `json:"elevation_loss_m"`

	Trackpoints tcxanalyzer.SampleSummary `json:"trackpoints"`
}

// exportPaths names the optional single-activity exports. Empty paths are
// skipped.
type exportPaths struct {
	JSONL   string
	CSV     string
	Parquet string
	Chart   string
}

func main() {
	var (
		jsonOut  = pflag.Bool("json", false, "Emit stats and laps as JSON")
		showLaps = pflag.Bool("laps", false, "Include lap-by-lap summary in text output")
		exports  exportPaths
	)
	pflag.StringVar(&exports.JSONL, "jsonl", "", "Also write the stats as JSONL to this path")
	pflag.StringVar(&exports.CSV, "csv", "", "Also write the stats as CSV to this path")
	pflag.StringVar(&exports.Parquet, "parquet", "", "Also write the stats as Parquet to this path")
	pflag.StringVar(&exports.Chart, "chart", "", "Also render the pace/heart-rate chart PNG to this path")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <activity.tcx|activity.fit|->\n", filepath.Base(os.Args[0]))
		fmt.Fprintln(os.Stderr, "A path of - reads a TCX document from stdin.")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() < 1 {
		pflag.Usage()
		os.Exit(2)
	}

	result, err := inspect(pflag.Arg(0), os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspection failed: %v\n", err)
		os.Exit(1)
	}
	if err := writeExports(result, exports); err != nil {
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printText(os.Stdout, result, *showLaps); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}
}

func inspect(path string, stdin io.Reader) (*inspection, error) {
	var (
		db  *tcxanalyzer.TrainingCenterDatabase
		err error
	)
	switch {
	case path == "-":
		db, err = tcxanalyzer.ParseTCX(stdin)
	case strings.EqualFold(filepath.Ext(path), ".fit"):
		db, err = tcxanalyzer.ParseFITFile(path)
	default:
		db, err = tcxanalyzer.ParseTCXFile(path)
	}
	if err != nil {
		return nil, err
	}
	act, ok := db.ActivityAt(0)
	if !ok {
		return nil, fmt.Errorf("%s: no activities", path)
	}

	analyzed := tcxanalyzer.Analyze(act)
	out := &inspection{
		Stats: tcxanalyzer.BuildStats(analyzed),
		Laps:  make([]lapSummary, 0, len(act.Laps)),
	}
	for i := range act.Laps {
		lap := &act.Laps[i]
		out.Laps = append(out.Laps, lapSummary{
			Index:            i + 1,
			StartTime:        lap.StartTime.Format(time.RFC3339),
			Seconds:          lap.Seconds,
			DistanceMeters:   lap.Distance,
			AverageHeartRate: lap.AverageHeartRate,
			AverageCadence:   lap.AverageCadence() * 2,
			AverageWatts:     lap.AverageWatts(),
			GainMeters:       analyzed.Elevation[i].GainMeters,
			LossMeters:       analyzed.Elevation[i].LossMeters,
			Trackpoints:      tcxanalyzer.SummarizeSamples(lap),
		})
	}
	return out, nil
}

func writeExports(in *inspection, paths exportPaths) error {
	stats := []tcxanalyzer.ActivityStats{in.Stats}
	if paths.JSONL != "" {
		if err := statsexport.WriteJSONL(paths.JSONL, stats); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	if paths.CSV != "" {
		if err := statsexport.WriteCSV(paths.CSV, stats); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if paths.Parquet != "" {
		if err := statsexport.WriteParquet(paths.Parquet, stats); err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
	}
	if paths.Chart != "" {
		if err := chart.RenderFile(paths.Chart, stats, chart.Options{}); err != nil {
			return fmt.Errorf("render chart: %w", err)
		}
	}
	return nil
}

func printText(w io.Writer, in *inspection, showLaps bool) error {
	if _, err := in.Stats.WriteTo(w); err != nil {
		return err
	}
	if !showLaps || len(in.Laps) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Lap Summary")
	for _, lap := range in.Laps {
		hr := "  -"
		if lap.AverageHeartRate != nil {
			hr = fmt.Sprintf("%3d", *lap.AverageHeartRate)
		}
		if _, err := fmt.Fprintf(w,
			"- Lap %02d | %7.2f mi | %8s | %s bpm (max %3d) | %3d spm | %4d W | +%5.1fm -%5.1fm | %d pts\n",
			lap.Index,
			lap.DistanceMeters*tcxanalyzer.MilesPerMeter,
			tcxanalyzer.FormatDuration(lap.Seconds),
			hr,
			lap.Trackpoints.MaxHeartRate,
			lap.AverageCadence,
			lap.AverageWatts,
			lap.GainMeters,
			lap.LossMeters,
			lap.Trackpoints.Samples,
		); err != nil {
			return err
		}
	}
	return nil
}
