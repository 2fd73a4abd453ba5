package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgencyCoverageCreation(t *testing.T) {
	coverage := NewAgencyCoverage("MARGUERITE", 37.43, 0.02, -122.17, 0.04)

	assert.Equal(t, "MARGUERITE", coverage.AgencyID)
	assert.Equal(t, 37.43, coverage.Lat)
	assert.Equal(t, 0.02, coverage.LatSpan)
	assert.Equal(t, -122.17, coverage.Lon)
	assert.Equal(t, 0.04, coverage.LonSpan)
}

func TestCoverageForStops(t *testing.T) {
	t.Run("bounding box of stops", func(t *testing.T) {
		stops := []Stop{
			{ID: "1", Lat: 37.40, Lon: -122.20},
			{ID: "2", Lat: 37.44, Lon: -122.16},
			{ID: "3", Lat: 37.42, Lon: -122.18},
		}

		coverage := CoverageForStops("MARGUERITE", stops)

		assert.InDelta(t, 37.42, coverage.Lat, 1e-9)
		assert.InDelta(t, 0.04, coverage.LatSpan, 1e-9)
		assert.InDelta(t, -122.18, coverage.Lon, 1e-9)
		assert.InDelta(t, 0.04, coverage.LonSpan, 1e-9)
	})

	t.Run("no stops", func(t *testing.T) {
		coverage := CoverageForStops("MARGUERITE", nil)
		assert.Equal(t, NewAgencyCoverage("MARGUERITE", 0, 0, 0, 0), coverage)
	})
}
