package tilemap

import "math"

// PanDirection represents a direction to pan the map
type PanDirection int

const (
	PanLeft PanDirection = iota
	PanRight
	PanUp
	PanDown
)

// PanSpeed in pixels per frame
const PanSpeed = 50

// Pan moves the map center in the specified direction by a fixed number of pixels
func (m *Map) Pan(dir PanDirection) {
	switch dir {
	case PanLeft:
		m.PanBy(PanSpeed, 0)
	case PanRight:
		m.PanBy(-PanSpeed, 0)
	case PanUp:
		m.PanBy(0, PanSpeed)
	case PanDown:
		m.PanBy(0, -PanSpeed)
	}
}

// PanBy moves the map by pixel offsets
// dx,dy are in screen pixels, positive dx moves the map right (view west), positive dy moves the map down (view north)
func (m *Map) PanBy(dx, dy float64) {
	res := m.Resolution()
	m.CenterX -= dx * res
	m.CenterY += dy * res
	m.clampCenter()
}

// PanTo centres the map on a point in map units, clamped to the max extent
func (m *Map) PanTo(x, y float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return
	}
	m.CenterX, m.CenterY = x, y
	m.clampCenter()
}
