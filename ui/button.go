package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var _ Component = (*Button)(nil)

var (
	buttonColor         = color.RGBA{150, 150, 150, 255}
	buttonHoverColor    = color.RGBA{180, 180, 180, 255}
	buttonPressedColor  = color.RGBA{100, 100, 100, 255}
	buttonActiveColor   = color.RGBA{33, 150, 243, 255}
	buttonDisabledColor = color.RGBA{90, 90, 90, 160}
)

// Button is a labelled rectangle that runs onClick when pressed and
// released over it
type Button struct {
	rect    Rectangle
	text    string
	onClick func()
	parent  Container

	hovered  bool
	pressed  bool
	active   bool
	disabled bool
}

func NewButton(x, y float64, text string, onClick func()) *Button {
	return &Button{
		rect:    Rectangle{X: x, Y: y, Width: 100, Height: 30},
		text:    text,
		onClick: onClick,
	}
}

func (b *Button) SetParent(parent Container) { b.parent = parent }
func (b *Button) GetParent() Container       { return b.parent }

func (b *Button) SetSize(width, height float64) {
	b.rect.Width, b.rect.Height = width, height
}

func (b *Button) SetPosition(x, y float64) {
	b.rect.X, b.rect.Y = x, y
}

// SetActive highlights the button, e.g. the slot of the current zoom level
func (b *Button) SetActive(active bool) {
	b.active = active
}

// SetDisabled greys the button out and ignores its clicks
func (b *Button) SetDisabled(disabled bool) {
	b.disabled = disabled
	if disabled {
		b.pressed = false
	}
}

func (b *Button) Disabled() bool { return b.disabled }
func (b *Button) Text() string   { return b.text }

func (b *Button) Update() error {
	return nil
}

func (b *Button) fill() color.Color {
	switch {
	case b.disabled:
		return buttonDisabledColor
	case b.pressed:
		return buttonPressedColor
	case b.active:
		return buttonActiveColor
	case b.hovered:
		return buttonHoverColor
	default:
		return buttonColor
	}
}

func (b *Button) Draw(screen *ebiten.Image) {
	x, y := absolute(b.parent, b.rect.X, b.rect.Y)
	w, h := float32(b.rect.Width), float32(b.rect.Height)

	vector.DrawFilledRect(screen, float32(x), float32(y), w, h, b.fill(), true)
	vector.StrokeRect(screen, float32(x), float32(y), w, h, 1, color.Black, true)

	if b.text != "" {
		ebitenutil.DebugPrintAt(screen, b.text, int(x)+4, int(y+(b.rect.Height-16)/2))
	}
}

// HandleInput takes coordinates relative to the parent. A disabled button
// still reports hits so clicks do not fall through to the map.
func (b *Button) HandleInput(x, y float64, pressed bool) bool {
	if !b.rect.Contains(x, y) {
		b.hovered = false
		b.pressed = false
		return false
	}

	b.hovered = true
	switch {
	case b.disabled:
	case pressed:
		b.pressed = true
	case b.pressed:
		b.pressed = false
		if b.onClick != nil {
			b.onClick()
		}
	}
	return true
}

func (b *Button) Bounds() Rectangle {
	return b.rect
}
