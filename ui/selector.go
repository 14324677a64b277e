package ui

import (
	"image/color"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const rowHeight = 18.0

var _ Component = (*Selector)(nil)

// Selector is a single-choice list of string options. Choosing a different
// option notifies every OnChange subscriber with the new value.
type Selector struct {
	id       string
	label    string
	options  []string
	selected int
	onChange []func(value string)

	x, y   float64
	width  float64
	parent Container

	hovered   int
	isPressed bool
}

// NewSelector creates a selector with the given element id and options.
// The first option starts selected.
func NewSelector(id, label string, options []string) *Selector {
	return &Selector{
		id:      id,
		label:   label,
		options: slices.Clone(options),
		width:   180,
		hovered: -1,
	}
}

// NewProjectionSelector creates the selector with id "projection" offering
// the given projection codes
func NewProjectionSelector(codes []string) *Selector {
	return NewSelector("projection", "Projection", codes)
}

func (s *Selector) ID() string {
	return s.id
}

func (s *Selector) Options() []string {
	return slices.Clone(s.options)
}

// SelectedIndex returns the index of the current option, or -1 when the
// selector has no options
func (s *Selector) SelectedIndex() int {
	if len(s.options) == 0 {
		return -1
	}
	return s.selected
}

// Selected returns the current option value
func (s *Selector) Selected() string {
	if i := s.SelectedIndex(); i >= 0 {
		return s.options[i]
	}
	return ""
}

// SetSelectedIndex selects an option programmatically without notifying
// subscribers. Out of range indexes are ignored.
func (s *Selector) SetSelectedIndex(i int) {
	if i < 0 || i >= len(s.options) {
		return
	}
	s.selected = i
}

// OnChange registers fn to be called with the new value whenever the user
// picks a different option
func (s *Selector) OnChange(fn func(value string)) {
	s.onChange = append(s.onChange, fn)
}

// Choose selects the option at index i the way a user click does
func (s *Selector) Choose(i int) {
	if i < 0 || i >= len(s.options) || i == s.selected {
		return
	}
	s.selected = i
	value := s.options[i]
	for _, fn := range s.onChange {
		fn(value)
	}
}

func (s *Selector) Update() error {
	return nil
}

func (s *Selector) Draw(screen *ebiten.Image) {
	x, y := absolute(s.parent, s.x, s.y)
	ebitenutil.DebugPrintAt(screen, s.label, int(x), int(y))

	for i, option := range s.options {
		rowY := y + rowHeight*float64(i+1)
		if i == s.hovered {
			vector.DrawFilledRect(screen, float32(x), float32(rowY), float32(s.width), rowHeight,
				color.RGBA{180, 180, 180, 120}, false)
		}
		drawRadio(screen, x+7, rowY+rowHeight/2, i == s.selected)
		ebitenutil.DebugPrintAt(screen, option, int(x)+18, int(rowY)+1)
	}
}

func drawRadio(screen *ebiten.Image, cx, cy float64, on bool) {
	vector.StrokeCircle(screen, float32(cx), float32(cy), 5, 1, color.White, true)
	if on {
		vector.DrawFilledCircle(screen, float32(cx), float32(cy), 3, color.White, true)
	}
}

func (s *Selector) Bounds() Rectangle {
	return Rectangle{
		X:      s.x,
		Y:      s.y,
		Width:  s.width,
		Height: rowHeight * float64(len(s.options)+1),
	}
}

// HandleInput chooses the option row under the point on release
func (s *Selector) HandleInput(x, y float64, pressed bool) bool {
	row := rowAt(s.Bounds(), x, y)
	if row < 0 {
		s.hovered = -1
		s.isPressed = false
		return false
	}

	s.hovered = row - 1
	if pressed {
		s.isPressed = true
	} else if s.isPressed {
		s.isPressed = false
		s.Choose(row - 1)
	}
	return true
}

// rowAt returns the row of b under the point, or -1 outside b
func rowAt(b Rectangle, x, y float64) int {
	if !b.Contains(x, y) || y == b.Y+b.Height {
		return -1
	}
	return int((y - b.Y) / rowHeight)
}

func (s *Selector) SetPosition(x, y float64) {
	s.x, s.y = x, y
}

func (s *Selector) SetParent(parent Container) {
	s.parent = parent
}

func (s *Selector) GetParent() Container {
	return s.parent
}
