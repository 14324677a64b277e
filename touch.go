package main

import (
	"math"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

func (g *Game) handleTouchEvents() {
	m := g.viewer.Map

	touches := make([]ebiten.TouchID, 0, 8)
	touches = ebiten.AppendTouchIDs(touches)

	// Initialize touch tracking maps if needed
	if g.lastTouchX == nil {
		g.lastTouchX = make(map[ebiten.TouchID]float64)
		g.lastTouchY = make(map[ebiten.TouchID]float64)
	}

	// Handle touch start
	for _, id := range touches {
		if _, exists := g.lastTouchX[id]; !exists {
			x, y := ebiten.TouchPosition(id)
			g.lastTouchX[id] = float64(x)
			g.lastTouchY[id] = float64(y)
		}
	}

	// Clean up ended touches
	for id := range g.lastTouchX {
		if !slices.Contains(touches, id) {
			delete(g.lastTouchX, id)
			delete(g.lastTouchY, id)
		}
	}

	switch len(touches) {
	case 1: // Single touch pans
		id := touches[0]
		x, y := ebiten.TouchPosition(id)
		if lastX, ok := g.lastTouchX[id]; ok {
			if lastY, ok := g.lastTouchY[id]; ok {
				dx := float64(x) - lastX
				dy := float64(y) - lastY
				if dx != 0 || dy != 0 {
					m.PanBy(dx, dy)
				}
			}
		}
		g.lastTouchX[id] = float64(x)
		g.lastTouchY[id] = float64(y)

	case 2: // Two finger pinch zooms
		id1, id2 := touches[0], touches[1]
		x1, y1 := ebiten.TouchPosition(id1)
		x2, y2 := ebiten.TouchPosition(id2)

		currentDist := math.Hypot(float64(x2-x1), float64(y2-y1))

		if _, ok := g.lastTouchX[id1]; ok {
			if _, ok := g.lastTouchX[id2]; ok {
				prevDist := math.Hypot(g.lastTouchX[id2]-g.lastTouchX[id1],
					g.lastTouchY[id2]-g.lastTouchY[id1])

				midX := (float64(x1) + float64(x2)) / 2
				midY := (float64(y1) + float64(y2)) / 2

				if zoomIn, ok := pinchZoom(prevDist, currentDist); ok {
					m.ZoomAtPoint(zoomIn, midX, midY)
				}
			}
		}

		g.lastTouchX[id1], g.lastTouchY[id1] = float64(x1), float64(y1)
		g.lastTouchX[id2], g.lastTouchY[id2] = float64(x2), float64(y2)
	}
}

// pinchZoom reports whether a pinch from prevDist to currentDist zooms in
// or out. Changes within 10% are ignored.
func pinchZoom(prevDist, currentDist float64) (zoomIn, ok bool) {
	switch {
	case currentDist > prevDist*1.1:
		return true, true
	case currentDist < prevDist*0.9:
		return false, true
	default:
		return false, false
	}
}
