package proj

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapToTileCoords(t *testing.T) {
	tests := []struct {
		name       string
		x, y       float64
		extent     Extent
		resolution float64
		wantX      float64
		wantY      float64
	}{
		{
			name:       "Top-left corner of the globe at zoom 0",
			x:          -180,
			y:          90,
			extent:     LonLatExtent,
			resolution: PlateCarreeResolution,
			wantX:      0.0,
			wantY:      0.0,
		},
		{
			name:       "Centre of the globe at zoom 0",
			x:          0,
			y:          0,
			extent:     LonLatExtent,
			resolution: PlateCarreeResolution,
			wantX:      0.5,
			wantY:      0.25,
		},
		{
			name:       "Bottom-right corner at zoom 1",
			x:          180,
			y:          -90,
			extent:     LonLatExtent,
			resolution: PlateCarreeResolution / 2,
			wantX:      2.0,
			wantY:      1.0,
		},
		{
			name:       "Polar window centre at zoom 0",
			x:          2000000,
			y:          2000000,
			extent:     PolarWindow,
			resolution: PolarMaxResolution,
			wantX:      1.0,
			wantY:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotX, gotY := MapToTileCoords(tt.x, tt.y, tt.extent, tt.resolution)
			if math.Abs(gotX-tt.wantX) > 1e-6 || math.Abs(gotY-tt.wantY) > 1e-6 {
				t.Errorf("got (%f, %f); want (%f, %f)",
					gotX, gotY, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestTileBounds(t *testing.T) {
	b := TileBounds(1, 0, LonLatExtent, PlateCarreeResolution/2)
	assert.Equal(t, NewExtent(0, -90, 180, 90), b)

	b = TileBounds(0, 1, PolarWindow, PolarMaxResolution)
	assert.InDelta(t, PolarWindow.Left, b.Left, 1e-6)
	assert.InDelta(t, PolarWindow.Bottom, b.Bottom, 1e-6)
}

func TestGridSize(t *testing.T) {
	cols, rows := GridSize(LonLatExtent, PlateCarreeResolution)
	assert.Equal(t, 1, cols)
	assert.Equal(t, 1, rows)

	cols, rows = GridSize(LonLatExtent, PlateCarreeResolution/4)
	assert.Equal(t, 4, cols)
	assert.Equal(t, 2, rows)

	// The polar window is twice the width of the square one tile covers.
	cols, rows = GridSize(PolarWindow, PolarMaxResolution)
	assert.Equal(t, 2, cols)
	assert.Equal(t, 2, rows)
}

func TestScreenRoundTrip(t *testing.T) {
	sx, sy := MapToScreen(10, 20, 0, 0, 0.5, 800, 600)
	assert.Equal(t, 420.0, sx)
	assert.Equal(t, 260.0, sy)

	x, y := ScreenToMap(sx, sy, 0, 0, 0.5, 800, 600)
	assert.InDelta(t, 10, x, 1e-9)
	assert.InDelta(t, 20, y, 1e-9)
}

func BenchmarkMapToTileCoords(b *testing.B) {
	coords := [][3]float64{
		{0, 0, 1},
		{180, 90, 10},
		{-180, -90, 15},
		{-122.67890, 45.12345, 12},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, c := range coords {
			MapToTileCoords(c[0], c[1], LonLatExtent, PlateCarreeResolution/math.Pow(2, c[2]))
		}
	}
}
