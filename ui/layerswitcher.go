package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/OpticalFlyer/basemaps/tilemap"
)

var (
	_ Component       = (*LayerSwitcher)(nil)
	_ tilemap.Control = (*LayerSwitcher)(nil)
)

// LayerSwitcher lists the map's layers. Clicking a base layer makes it the
// visible base layer, clicking an overlay toggles it.
type LayerSwitcher struct {
	m *tilemap.Map

	x, y   float64
	width  float64
	parent Container

	hovered   int
	isPressed bool
}

func NewLayerSwitcher() *LayerSwitcher {
	return &LayerSwitcher{width: 180, hovered: -1}
}

func (ls *LayerSwitcher) Name() string {
	return "LayerSwitcher"
}

func (ls *LayerSwitcher) Attach(m *tilemap.Map) {
	ls.m = m
}

func (ls *LayerSwitcher) layers() []tilemap.Layer {
	if ls.m == nil {
		return nil
	}
	return ls.m.Layers()
}

func (ls *LayerSwitcher) Update() error {
	return nil
}

func (ls *LayerSwitcher) Draw(screen *ebiten.Image) {
	x, y := absolute(ls.parent, ls.x, ls.y)
	ebitenutil.DebugPrintAt(screen, "Layers", int(x), int(y))

	for i, l := range ls.layers() {
		rowY := y + rowHeight*float64(i+1)
		if i == ls.hovered {
			vector.DrawFilledRect(screen, float32(x), float32(rowY), float32(ls.width), rowHeight,
				color.RGBA{180, 180, 180, 120}, false)
		}
		if l.IsBaseLayer() {
			drawRadio(screen, x+7, rowY+rowHeight/2, l.Visible())
		} else {
			vector.StrokeRect(screen, float32(x+2), float32(rowY+4), 10, 10, 1, color.White, true)
			if l.Visible() {
				vector.DrawFilledRect(screen, float32(x+4), float32(rowY+6), 6, 6, color.White, true)
			}
		}
		ebitenutil.DebugPrintAt(screen, l.Name(), int(x)+18, int(rowY)+1)
	}
}

func (ls *LayerSwitcher) Bounds() Rectangle {
	return Rectangle{
		X:      ls.x,
		Y:      ls.y,
		Width:  ls.width,
		Height: rowHeight * float64(len(ls.layers())+1),
	}
}

func (ls *LayerSwitcher) HandleInput(x, y float64, pressed bool) bool {
	row := rowAt(ls.Bounds(), x, y)
	if row < 0 {
		ls.hovered = -1
		ls.isPressed = false
		return false
	}

	ls.hovered = row - 1
	if pressed {
		ls.isPressed = true
	} else if ls.isPressed {
		ls.isPressed = false
		ls.Toggle(row - 1)
	}
	return true
}

// Toggle acts on the i-th layer as a click on its row does
func (ls *LayerSwitcher) Toggle(i int) {
	layers := ls.layers()
	if i < 0 || i >= len(layers) {
		return
	}
	l := layers[i]
	if b, ok := l.(tilemap.BaseLayer); ok && l.IsBaseLayer() {
		ls.m.SetBaseLayer(b)
		return
	}
	l.SetVisible(!l.Visible())
}

func (ls *LayerSwitcher) SetPosition(x, y float64) {
	ls.x, ls.y = x, y
}

func (ls *LayerSwitcher) SetParent(parent Container) {
	ls.parent = parent
}

func (ls *LayerSwitcher) GetParent() Container {
	return ls.parent
}
