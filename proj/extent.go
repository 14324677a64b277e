package proj

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Extent is a rectangular bounding box in the native units of a coordinate
// reference system.
type Extent struct {
	Left, Bottom, Right, Top float64
}

// NewExtent creates an Extent from its four bounds
func NewExtent(left, bottom, right, top float64) Extent {
	return Extent{Left: left, Bottom: bottom, Right: right, Top: top}
}

// ExtentFromBound converts an orb bound into an Extent
func ExtentFromBound(b orb.Bound) Extent {
	return Extent{Left: b.Left(), Bottom: b.Bottom(), Right: b.Right(), Top: b.Top()}
}

// Bound returns the extent as an orb bound
func (e Extent) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{e.Left, e.Bottom},
		Max: orb.Point{e.Right, e.Top},
	}
}

func (e Extent) Width() float64 {
	return e.Right - e.Left
}

func (e Extent) Height() float64 {
	return e.Top - e.Bottom
}

// Center returns the midpoint of the extent
func (e Extent) Center() (x, y float64) {
	return e.Left + e.Width()/2, e.Bottom + e.Height()/2
}

// IsEmpty reports whether the extent has no area
func (e Extent) IsEmpty() bool {
	return e.Width() <= 0 || e.Height() <= 0
}

// Contains reports whether the point lies inside the extent (edges included)
func (e Extent) Contains(x, y float64) bool {
	return x >= e.Left && x <= e.Right && y >= e.Bottom && y <= e.Top
}

// Intersects reports whether two extents overlap with a non-zero area
func (e Extent) Intersects(o Extent) bool {
	return e.Left < o.Right && o.Left < e.Right &&
		e.Bottom < o.Top && o.Bottom < e.Top
}

// String formats the extent the way WMS expects a BBOX value
func (e Extent) String() string {
	return strings.Join([]string{
		formatOrdinate(e.Left),
		formatOrdinate(e.Bottom),
		formatOrdinate(e.Right),
		formatOrdinate(e.Top),
	}, ",")
}

func formatOrdinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseExtent parses a "left,bottom,right,top" string
func ParseExtent(s string) (Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Extent{}, fmt.Errorf("extent must have 4 values: left,bottom,right,top")
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Extent{}, fmt.Errorf("invalid extent ordinate %q: %w", p, err)
		}
		v[i] = f
	}

	e := NewExtent(v[0], v[1], v[2], v[3])
	if e.Left > e.Right {
		return Extent{}, fmt.Errorf("left (%g) must be <= right (%g)", e.Left, e.Right)
	}
	if e.Bottom > e.Top {
		return Extent{}, fmt.Errorf("bottom (%g) must be <= top (%g)", e.Bottom, e.Top)
	}
	return e, nil
}
