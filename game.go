package main

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/OpticalFlyer/basemaps/tilemap"
	"github.com/OpticalFlyer/basemaps/ui"
	"github.com/OpticalFlyer/basemaps/viewer"
)

// wheelZoomInterval throttles mouse wheel zooming
const wheelZoomInterval = 100 * time.Millisecond

// Game implements ebiten.Game for the map viewer
type Game struct {
	viewer    *viewer.Viewer
	debugMode bool
	ui        *ui.Controller

	// Mouse panning state
	isDragging bool
	lastMouseX int
	lastMouseY int

	lastZoomTime time.Time

	// Touch state for multi-touch interactions
	lastTouchX map[ebiten.TouchID]float64
	lastTouchY map[ebiten.TouchID]float64
}

func newGame(v *viewer.Viewer, controller *ui.Controller) *Game {
	return &Game{
		viewer:       v,
		ui:           controller,
		lastZoomTime: time.Now(),
	}
}

func (g *Game) Update() error {
	// Update UI first to handle any panel interactions
	if err := g.ui.Update(); err != nil {
		return err
	}

	// Only handle map interactions if we're not interacting with UI
	if g.ui.IsInteractingWithUI() {
		g.isDragging = false
		return nil
	}

	m := g.viewer.Map
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		g.debugMode = !g.debugMode
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyHome) {
		m.ZoomToMaxExtent()
	}

	// Handle keyboard zooming
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) || // = key
		inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd) { // numpad +
		m.ZoomIn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) || // - key
		inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract) { // numpad -
		m.ZoomOut()
	}

	_, wheelY := ebiten.Wheel()
	if wheelY != 0 && time.Since(g.lastZoomTime) > wheelZoomInterval {
		x, y := ebiten.CursorPosition()
		m.ZoomAtPoint(wheelY > 0, float64(x), float64(y))
		g.lastZoomTime = time.Now()
	}

	// Handle keyboard panning
	if ebiten.IsKeyPressed(ebiten.KeyLeft) {
		m.Pan(tilemap.PanLeft)
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) {
		m.Pan(tilemap.PanRight)
	}
	if ebiten.IsKeyPressed(ebiten.KeyUp) {
		m.Pan(tilemap.PanUp)
	}
	if ebiten.IsKeyPressed(ebiten.KeyDown) {
		m.Pan(tilemap.PanDown)
	}

	// Handle mouse panning
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.isDragging = true
		g.lastMouseX, g.lastMouseY = ebiten.CursorPosition()
	} else if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.isDragging = false
	}

	if g.isDragging {
		currentX, currentY := ebiten.CursorPosition()
		dx := float64(currentX - g.lastMouseX)
		dy := float64(currentY - g.lastMouseY)
		if dx != 0 || dy != 0 {
			m.PanBy(dx, dy)
		}
		g.lastMouseX = currentX
		g.lastMouseY = currentY
	}

	g.handleTouchEvents()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	m := g.viewer.Map
	tileRange := m.Draw(screen, g.debugMode)

	g.ui.Draw(screen)

	if g.debugMode {
		redColor := color.RGBA{R: 255, A: 255}
		strokeWidth := float32(1.0)

		// Draw crosshair
		centerX := float32(m.ScreenWidth / 2)
		centerY := float32(m.ScreenHeight / 2)
		crosshairSize := float32(10.0)

		vector.StrokeLine(screen,
			centerX-crosshairSize, centerY,
			centerX+crosshairSize, centerY,
			strokeWidth, redColor, false)
		vector.StrokeLine(screen,
			centerX, centerY-crosshairSize,
			centerX, centerY+crosshairSize,
			strokeWidth, redColor, false)

		g.ui.ShowDebugInfo(screen)
		debugText := fmt.Sprintf("%s\nCenter: %.4f, %.4f\nZoom: %d (%.6g %s/px)\nTiles: %d,%d - %d,%d",
			m.Projection(), m.CenterX, m.CenterY,
			m.Zoom, m.Resolution(), m.Options().Units,
			tileRange.MinX, tileRange.MinY, tileRange.MaxX, tileRange.MaxY)
		ebitenutil.DebugPrintAt(screen, debugText, 0, 16)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.viewer.Map.ScreenWidth = outsideWidth
	g.viewer.Map.ScreenHeight = outsideHeight
	g.ui.UpdateWindowSize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}
