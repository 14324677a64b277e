package proj

import (
	"errors"
	"fmt"
	"math"
)

// Coordinate reference system identifiers understood by the viewer
const (
	CodeLonLat    = "EPSG:4326"
	CodeCRS84     = "CRS:84"
	CodeNorthPole = "EPSG:32661" // UPS North
	CodeSouthPole = "EPSG:32761" // UPS South
)

// TileSize is the width and height of a tile in pixels
const TileSize = 256

// Units names the map units of a coordinate reference system
type Units string

const (
	Degrees Units = "degrees"
	Meters  Units = "m"
)

// ErrUnrecognizedProjection is returned for identifiers with no profile
var ErrUnrecognizedProjection = errors.New("unrecognized map projection")

var (
	// LonLatExtent covers the whole globe in degrees
	LonLatExtent = NewExtent(-180, -90, 180, 90)

	// PolarMaxExtent is the maximal square extent of the polar stereographic
	// projections. It is only used to derive PolarWindow.
	PolarMaxExtent = NewExtent(-10700000, -10700000, 14700000, 14700000)

	// PlateCarreeResolution shows the full 360 degrees in one tile width
	PlateCarreeResolution = 360.0 / TileSize
)

// PolarWindow and PolarMaxResolution are derived once from PolarMaxExtent
var PolarWindow, PolarMaxResolution = derivePolarWindow(PolarMaxExtent)

// derivePolarWindow takes a quarter-side square centred on the max extent
// and returns twice that around the same centre, plus the resolution that
// fits the quarter-side square into one tile.
func derivePolarWindow(maxExtent Extent) (Extent, float64) {
	halfSide := (maxExtent.Top - maxExtent.Bottom) / (4 * 2)
	centre := (maxExtent.Top-maxExtent.Bottom)/2 + maxExtent.Bottom

	low := centre - halfSide
	high := centre + halfSide
	resolution := (high - low) / TileSize

	windowLow := centre - 2*halfSide
	windowHigh := centre + 2*halfSide
	return NewExtent(windowLow, windowLow, windowHigh, windowHigh), resolution
}

// Profile is the set of map settings selected by a projection identifier
type Profile struct {
	Code          string
	Units         Units
	MaxExtent     Extent
	MaxResolution float64
	Resolutions   []float64
}

// ProfileFor resolves a projection identifier to its profile, with a
// resolution ladder of numZoomLevels entries.
func ProfileFor(code string, numZoomLevels int) (Profile, error) {
	var p Profile
	switch code {
	case CodeLonLat:
		p = Profile{Units: Degrees, MaxExtent: LonLatExtent, MaxResolution: PlateCarreeResolution}
	case CodeNorthPole, CodeSouthPole:
		p = Profile{Units: Meters, MaxExtent: PolarWindow, MaxResolution: PolarMaxResolution}
	default:
		return Profile{}, fmt.Errorf("%w %s", ErrUnrecognizedProjection, code)
	}
	p.Code = code
	p.Resolutions = ResolutionLadder(p.MaxResolution, numZoomLevels)
	return p, nil
}

// ResolutionLadder returns n resolutions, halving base at each zoom level
func ResolutionLadder(base float64, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}
	resolutions := make([]float64, n)
	resolutions[0] = base
	for i := 1; i < n; i++ {
		resolutions[i] = base / math.Pow(2, float64(i))
	}
	return resolutions
}
