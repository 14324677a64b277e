package proj

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolarStereographicPoles(t *testing.T) {
	north := NorthPolarStereographic()
	x, y, ok := north.FromLonLat(0, 90)
	require.True(t, ok)
	assert.InDelta(t, 2000000, x, 1e-6)
	assert.InDelta(t, 2000000, y, 1e-6)

	_, _, ok = north.FromLonLat(0, -90)
	assert.False(t, ok, "north projection is undefined at the south pole")

	south := SouthPolarStereographic()
	x, y, ok = south.FromLonLat(123, -90)
	require.True(t, ok)
	assert.InDelta(t, 2000000, x, 1e-6)
	assert.InDelta(t, 2000000, y, 1e-6)

	lon, lat := south.ToLonLat(2000000, 2000000)
	assert.Equal(t, 0.0, lon)
	assert.Equal(t, -90.0, lat)
}

func TestPolarStereographicOrientation(t *testing.T) {
	north := NorthPolarStereographic()

	// Greenwich runs from the pole towards the bottom of the map.
	x, y, ok := north.FromLonLat(0, 80)
	require.True(t, ok)
	assert.InDelta(t, 2000000, x, 1e-6)
	assert.Less(t, y, 2000000.0)

	// 90E lies to the right of the pole.
	x, y, ok = north.FromLonLat(90, 80)
	require.True(t, ok)
	assert.Greater(t, x, 2000000.0)
	assert.InDelta(t, 2000000, y, 1e-6)

	south := SouthPolarStereographic()

	// On the southern map Greenwich runs towards the top.
	x, y, ok = south.FromLonLat(0, -80)
	require.True(t, ok)
	assert.InDelta(t, 2000000, x, 1e-6)
	assert.Greater(t, y, 2000000.0)
}

func TestPolarStereographicRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		p        *PolarStereographic
		lon, lat float64
	}{
		{"north greenwich", NorthPolarStereographic(), 0, 84},
		{"north svalbard", NorthPolarStereographic(), 15.6, 78.2},
		{"north alaska", NorthPolarStereographic(), -150, 70},
		{"north equator", NorthPolarStereographic(), 45, 0},
		{"south mcmurdo", SouthPolarStereographic(), 166.67, -77.85},
		{"south peninsula", SouthPolarStereographic(), -60, -65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := tt.p.FromLonLat(tt.lon, tt.lat)
			require.True(t, ok)
			lon, lat := tt.p.ToLonLat(x, y)
			assert.InDelta(t, tt.lon, lon, 1e-7)
			assert.InDelta(t, tt.lat, lat, 1e-7)
		})
	}
}

func TestForCode(t *testing.T) {
	for _, code := range []string{CodeLonLat, CodeCRS84, CodeNorthPole, CodeSouthPole} {
		p, err := ForCode(code)
		require.NoError(t, err, code)
		assert.Equal(t, code, p.Code())
	}

	_, err := ForCode("EPSG:3857")
	assert.ErrorIs(t, err, ErrUnrecognizedProjection)

	ll, err := ForCode(CodeLonLat)
	require.NoError(t, err)
	x, y, ok := ll.FromLonLat(12.5, -45)
	assert.True(t, ok)
	assert.Equal(t, 12.5, x)
	assert.Equal(t, -45.0, y)
}
