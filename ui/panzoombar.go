package ui

import (
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/OpticalFlyer/basemaps/tilemap"
)

var (
	_ Component       = (*PanZoomBar)(nil)
	_ tilemap.Control = (*PanZoomBar)(nil)
)

const (
	panButtonSize  = 18.0
	zoomSlotHeight = 9.0
)

// PanZoomBar offers pan arrows, a zoom-to-world button and a zoom bar with
// one slot per zoom level, highest zoom at the top
type PanZoomBar struct {
	*Box

	m       *tilemap.Map
	slots   []*Button
	zoomIn  *Button
	zoomOut *Button
}

func NewPanZoomBar(x, y float64) *PanZoomBar {
	return &PanZoomBar{Box: NewBox(x, y, 3*panButtonSize, 3*panButtonSize, nil)}
}

func (p *PanZoomBar) Name() string {
	return "PanZoomBar"
}

// Attach builds the buttons for the map's zoom levels
func (p *PanZoomBar) Attach(m *tilemap.Map) {
	p.m = m
	for _, c := range p.Children() {
		p.RemoveChild(c)
	}
	p.slots = nil

	s := panButtonSize
	p.addButton(s, 0, "^", func() { m.Pan(tilemap.PanUp) })
	p.addButton(0, s, "<", func() { m.Pan(tilemap.PanLeft) })
	p.addButton(2*s, s, ">", func() { m.Pan(tilemap.PanRight) })
	p.addButton(s, 2*s, "v", func() { m.Pan(tilemap.PanDown) })
	p.addButton(s, s, "o", m.ZoomToMaxExtent)

	y := 3*s + 6
	p.zoomIn = p.addButton(s, y, "+", m.ZoomIn)
	y += s

	n := m.NumZoomLevels()
	for i := 0; i < n; i++ {
		zoom := n - 1 - i
		b := NewButton(s, y, "", func() { m.ZoomTo(zoom) })
		b.SetSize(s, zoomSlotHeight)
		p.AddChild(b)
		p.slots = append(p.slots, b)
		y += zoomSlotHeight
	}

	p.zoomOut = p.addButton(s, y, "-", m.ZoomOut)
	p.rect.Height = y + s
}

func (p *PanZoomBar) addButton(x, y float64, text string, onClick func()) *Button {
	b := NewButton(x, y, text, onClick)
	b.SetSize(panButtonSize, panButtonSize)
	p.AddChild(b)
	return b
}

// Update highlights the slot of the current zoom level and disables the
// zoom buttons at either end of the ladder
func (p *PanZoomBar) Update() error {
	if p.m != nil {
		n := len(p.slots)
		for i, b := range p.slots {
			b.SetActive(n-1-i == p.m.Zoom)
		}
		p.zoomIn.SetDisabled(p.m.Zoom >= p.m.NumZoomLevels()-1)
		p.zoomOut.SetDisabled(p.m.Zoom <= 0)
	}
	return p.Box.Update()
}

func (p *PanZoomBar) Draw(screen *ebiten.Image) {
	p.Box.Draw(screen)
}

// Slots returns the zoom-level buttons, highest zoom first
func (p *PanZoomBar) Slots() []*Button {
	return append([]*Button(nil), p.slots...)
}
