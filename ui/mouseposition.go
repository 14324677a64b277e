package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilemap"
)

var (
	_ Component       = (*MousePosition)(nil)
	_ tilemap.Control = (*MousePosition)(nil)
)

// MousePosition shows the map coordinates under the cursor, and the
// longitude and latitude when the map is not already in degrees
type MousePosition struct {
	m      *tilemap.Map
	parent Container

	windowWidth  int
	windowHeight int
	text         string
}

func NewMousePosition() *MousePosition {
	return &MousePosition{windowWidth: 800, windowHeight: 600}
}

func (mp *MousePosition) Name() string {
	return "MousePosition"
}

func (mp *MousePosition) Attach(m *tilemap.Map) {
	mp.m = m
}

// SetCursor recomputes the readout for a cursor at screen position (x, y)
func (mp *MousePosition) SetCursor(x, y float64) {
	if mp.m == nil {
		mp.text = ""
		return
	}
	mx, my := mp.m.ScreenToMap(x, y)
	mp.text = formatPosition(mp.m.Projection(), mp.m.Options().Units, mx, my)
}

func formatPosition(code string, units proj.Units, x, y float64) string {
	if units == proj.Degrees {
		return fmt.Sprintf("%.5f, %.5f", x, y)
	}
	text := fmt.Sprintf("%.0f, %.0f %s", x, y, units)
	p, err := proj.ForCode(code)
	if err != nil {
		return text
	}
	lon, lat := p.ToLonLat(x, y)
	return fmt.Sprintf("%s (%.4f, %.4f)", text, lon, lat)
}

// Text returns the current readout
func (mp *MousePosition) Text() string {
	return mp.text
}

func (mp *MousePosition) UpdateWindowSize(width, height int) {
	mp.windowWidth, mp.windowHeight = width, height
}

func (mp *MousePosition) Update() error {
	x, y := ebiten.CursorPosition()
	mp.SetCursor(float64(x), float64(y))
	return nil
}

func (mp *MousePosition) Draw(screen *ebiten.Image) {
	if mp.text == "" {
		return
	}
	b := mp.Bounds()
	ebitenutil.DebugPrintAt(screen, mp.text, int(b.X), int(b.Y))
}

// Bounds places the readout in the bottom right corner of the window
func (mp *MousePosition) Bounds() Rectangle {
	width := float64(len(mp.text)*6 + 8)
	return Rectangle{
		X:      float64(mp.windowWidth) - width,
		Y:      float64(mp.windowHeight) - 20,
		Width:  width,
		Height: 16,
	}
}

// HandleInput never consumes input so the map stays pannable underneath
func (mp *MousePosition) HandleInput(x, y float64, pressed bool) bool {
	return false
}

func (mp *MousePosition) SetParent(parent Container) {
	mp.parent = parent
}

func (mp *MousePosition) GetParent() Container {
	return mp.parent
}
