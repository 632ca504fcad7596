//go:build !js

package statsexport

import (
	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

type statsParquetRow struct {
	Index              int64   `parquet:"name=index, type=INT64"`
	ID                 string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Sport              string  `parquet:"name=sport, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Creator            string  `parquet:"name=creator, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Laps               int64   `parquet:"name=laps, type=INT64"`
	DistanceMiles      float64 `parquet:"name=distance_mi, type=DOUBLE"`
	DistanceKilometers float64 `parquet:"name=distance_km, type=DOUBLE"`
	AverageHeartRate   int64   `parquet:"name=average_hr_bpm, type=INT64"`
	AveragePace        string  `parquet:"name=average_pace, type=BYTE_ARRAY, convertedtype=UTF8"`
	PaceSecondsPerMile int64   `parquet:"name=average_pace_seconds_per_mile, type=INT64"`
	AverageWatts       int64   `parquet:"name=average_power_w, type=INT64"`
	AverageCadence     int64   `parquet:"name=average_cadence_spm, type=INT64"`
	ElevationGainFeet  int64   `parquet:"name=elevation_gain_ft, type=INT64"`
	ElevationLossFeet  int64   `parquet:"name=elevation_loss_ft, type=INT64"`
}

// WriteParquet writes stats as a SNAPPY-compressed parquet file.
func WriteParquet(path string, stats []tcxanalyzer.ActivityStats) error {
	if err := EnsureParentDir(path); err != nil {
		return err
	}
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	if err := writeParquetRows(fw, stats); err != nil {
		_ = fw.Close()
		return err
	}
	return fw.Close()
}

// MarshalParquet renders stats as parquet bytes.
func MarshalParquet(stats []tcxanalyzer.ActivityStats) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	if err := writeParquetRows(fw, stats); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeParquetRows(fw source.ParquetFile, stats []tcxanalyzer.ActivityStats) error {
	pw, err := writer.NewParquetWriter(fw, new(statsParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for i, s := range stats {
		row := statsParquetRow{
			Index:              int64(i),
			ID:                 s.ID,
			Sport:              s.Sport,
			Creator:            s.Creator,
			Laps:               int64(s.Laps),
			DistanceMiles:      s.DistanceMiles,
			DistanceKilometers: s.DistanceKilometers,
			AverageHeartRate:   int64(s.AverageHeartRate),
			AveragePace:        s.AveragePace,
			PaceSecondsPerMile: s.PaceSecondsPerMile,
			AverageWatts:       int64(s.AverageWatts),
			AverageCadence:     int64(s.AverageCadence),
			ElevationGainFeet:  int64(s.ElevationGainFeet),
			ElevationLossFeet:  int64(s.ElevationLossFeet),
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return err
		}
	}
	return pw.WriteStop()
}
