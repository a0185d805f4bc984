package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_SamePoint(t *testing.T) {
	assert.InDelta(t, 0, Distance(55.75, 37.61, 55.75, 37.61), 1e-9)
}

func TestDistance_Symmetry(t *testing.T) {
	d1 := Distance(40.7128, -74.0060, 51.5074, -0.1278)
	d2 := Distance(51.5074, -0.1278, 40.7128, -74.0060)
	assert.InDelta(t, d1, d2, 1e-9)
}

func TestDistance_KnownPairs(t *testing.T) {
	tests := []struct {
		name       string
		lat1, lon1 float64
		lat2, lon2 float64
		expectedKm float64
		delta      float64
	}{
		{
			name: "Manhattan to Brooklyn",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 40.7306, lon2: -73.9352,
			expectedKm: 6.3,
			delta:      0.3,
		},
		{
			name: "New York to London",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 51.5074, lon2: -0.1278,
			expectedKm: 5570,
			delta:      20,
		},
		{
			name: "across the equator",
			lat1: 1.0, lon1: 103.8,
			lat2: -1.0, lon2: 103.8,
			expectedKm: 222.4,
			delta:      1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expectedKm, got, tt.delta)
		})
	}
}
