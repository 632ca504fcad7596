package tcxanalyzer

// Unit conversion and filter constants shared by the elevation and stats code.
const (
	FeetPerMeter  = 3.28084
	MetersPerMile = 1609.344
	MilesPerMeter = 0.0006213712

	// AltitudeThreshold is the smallest altitude change, in meters, that
	// counts as real elevation movement rather than sensor jitter.
	AltitudeThreshold = 1.0
)
