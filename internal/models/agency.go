package models

import "math"

// AgencyCoverage represents the geographical coverage area of a transit agency
type AgencyCoverage struct {
	AgencyID string  `json:"agencyId"`
	Lat      float64 `json:"lat"`
	LatSpan  float64 `json:"latSpan"`
	Lon      float64 `json:"lon"`
	LonSpan  float64 `json:"lonSpan"`
}

// NewAgencyCoverage creates a new AgencyCoverage instance with the provided values
func NewAgencyCoverage(agencyID string, lat, latSpan, lon, lonSpan float64) AgencyCoverage {
	return AgencyCoverage{
		AgencyID: agencyID,
		Lat:      lat,
		LatSpan:  latSpan,
		Lon:      lon,
		LonSpan:  lonSpan,
	}
}

// CoverageForStops returns the bounding box of stops as center and span.
// An empty stop list yields a zero-span coverage at the origin.
func CoverageForStops(agencyID string, stops []Stop) AgencyCoverage {
	if len(stops) == 0 {
		return NewAgencyCoverage(agencyID, 0, 0, 0, 0)
	}

	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	for _, s := range stops {
		minLat = math.Min(minLat, s.Lat)
		maxLat = math.Max(maxLat, s.Lat)
		minLon = math.Min(minLon, s.Lon)
		maxLon = math.Max(maxLon, s.Lon)
	}

	return NewAgencyCoverage(agencyID,
		(minLat+maxLat)/2, maxLat-minLat,
		(minLon+maxLon)/2, maxLon-minLon)
}

type AgencyReference struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Timezone string `json:"timezone"`
	Lang     string `json:"lang,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	FareUrl  string `json:"fareUrl,omitempty"`
}
