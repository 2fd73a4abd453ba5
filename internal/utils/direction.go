package utils

import "math"

var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// NormalizeHeading folds a heading in degrees into [0, 360). NaN and
// infinities come back as NaN.
func NormalizeHeading(degrees float64) float64 {
	h := math.Mod(degrees, 360)
	if h < 0 {
		h += 360
	}
	// -1e-14 + 360 rounds up to exactly 360.
	if h >= 360 {
		h = 0
	}
	return h
}

// IsFinite reports whether f is neither NaN nor an infinity.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// InitialBearing is the great-circle heading from the first point toward the
// second, in [0, 360).
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	deltaLambda := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(deltaLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(deltaLambda)
	return NormalizeHeading(math.Atan2(y, x) * 180 / math.Pi)
}

// CompassPoint names the 8-point compass sector a heading falls in. Any
// finite heading is accepted; non-finite ones yield "".
func CompassPoint(heading float64) string {
	if !IsFinite(heading) {
		return ""
	}
	sector := int(math.Floor((NormalizeHeading(heading)+22.5)/45)) % 8
	return compassPoints[sector]
}
