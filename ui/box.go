package ui

import "github.com/hajimehoshi/ebiten/v2"

var _ Container = (*Box)(nil)

// Box is a borderless container occupying a fixed rectangle
type Box struct {
	rect   Rectangle
	parent Container
	children
}

func NewBox(x, y, width, height float64, layout Layout) *Box {
	return &Box{
		rect:     Rectangle{X: x, Y: y, Width: width, Height: height},
		children: children{layout: layout},
	}
}

func (b *Box) Update() error {
	return b.update()
}

func (b *Box) Draw(screen *ebiten.Image) {
	b.draw(screen)
}

// Bounds returns the box position relative to its parent
func (b *Box) Bounds() Rectangle {
	return b.rect
}

// HandleInput consumes every event inside the box
func (b *Box) HandleInput(x, y float64, pressed bool) bool {
	if !b.rect.Contains(x, y) {
		b.handle(-1, -1, false)
		return false
	}
	b.handle(x-b.rect.X, y-b.rect.Y, pressed)
	return true
}

func (b *Box) SetPosition(x, y float64) {
	b.rect.X, b.rect.Y = x, y
}

func (b *Box) SetParent(parent Container) { b.parent = parent }
func (b *Box) GetParent() Container       { return b.parent }

func (b *Box) AddChild(child Component)    { b.add(b, child) }
func (b *Box) RemoveChild(child Component) { b.remove(b, child) }
func (b *Box) Children() []Component       { return append([]Component(nil), b.items...) }
func (b *Box) Layout() Layout              { return b.layout }
