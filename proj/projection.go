package proj

import "fmt"

// Projection converts between a coordinate reference system and WGS84
// longitude/latitude in degrees.
type Projection interface {
	// Code returns the identifier of the coordinate reference system.
	Code() string

	// FromLonLat converts WGS84 longitude/latitude to projected coordinates.
	// ok is false where the projection is undefined.
	FromLonLat(lon, lat float64) (x, y float64, ok bool)

	// ToLonLat converts projected coordinates to WGS84 longitude/latitude.
	ToLonLat(x, y float64) (lon, lat float64)
}

// ForCode returns the Projection for a coordinate reference system identifier
func ForCode(code string) (Projection, error) {
	switch code {
	case CodeLonLat, CodeCRS84:
		return LonLat{code: code}, nil
	case CodeNorthPole:
		return NorthPolarStereographic(), nil
	case CodeSouthPole:
		return SouthPolarStereographic(), nil
	default:
		return nil, fmt.Errorf("%w %s", ErrUnrecognizedProjection, code)
	}
}

// LonLat is the identity projection of geographic coordinates
type LonLat struct {
	code string
}

func (p LonLat) Code() string {
	if p.code == "" {
		return CodeLonLat
	}
	return p.code
}

func (p LonLat) FromLonLat(lon, lat float64) (x, y float64, ok bool) {
	return lon, lat, lat >= -90 && lat <= 90
}

func (p LonLat) ToLonLat(x, y float64) (lon, lat float64) {
	return x, y
}
