package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const tcxTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<TrainingCenterDatabase xmlns="http://www.garmin.com/xmlschemas/TrainingCenterDatabase/v2"
  xmlns:ns3="http://www.garmin.com/xmlschemas/ActivityExtension/v2">
  <Activities>
    <Activity Sport="Running">
      <Id>%s</Id>
      <Lap StartTime="%s">
        <TotalTimeSeconds>%g</TotalTimeSeconds>
        <DistanceMeters>1609.344</DistanceMeters>
        <Calories>100</Calories>
        <Track>%s
        </Track>
        <Extensions>
          <ns3:LX>
            <ns3:AvgRunCadence>85</ns3:AvgRunCadence>
            <ns3:AvgWatts>220</ns3:AvgWatts>
          </ns3:LX>
        </Extensions>
      </Lap>
      <Creator><Name>Forerunner 955</Name></Creator>
    </Activity>
  </Activities>
</TrainingCenterDatabase>
`

// tcxRun renders a one-lap mile with the given heart rates, one trackpoint
// each.
func tcxRun(id string, seconds float64, heartRates ...int) string {
	var tps strings.Builder
	for i, hr := range heartRates {
		fmt.Fprintf(&tps, `
          <Trackpoint>
            <Time>%s</Time>
            <AltitudeMeters>%d</AltitudeMeters>
            <HeartRateBpm><Value>%d</Value></HeartRateBpm>
          </Trackpoint>`, id, 100+2*i, hr)
	}
	return fmt.Sprintf(tcxTemplate, id, id, seconds, tps.String())
}

func writeSource(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
