package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var _ Container = (*Panel)(nil)

type dockSide int

const (
	dockNone dockSide = iota
	dockLeft
	dockRight
)

type dragMode int

const (
	dragNone dragMode = iota
	dragMove
	dragResize
)

const (
	titleBarHeight = 20.0
	gripSize       = 10.0
	dockThreshold  = 20.0
	minPanelWidth  = 100.0
	minPanelHeight = 50.0
	previewAlpha   = 84
	panelAlpha     = 200
)

// Panel is a window holding controls. It is moved by its title bar, snaps
// to the left or right window edge as a full-height sidebar, resizes from
// its bottom-right grip and collapses to its title bar.
type Panel struct {
	X, Y          float64
	Width, Height float64
	Title         string
	Collapsed     bool

	parent Container
	children

	dock           dockSide
	preview        dockSide
	undockedHeight float64

	drag         dragMode
	grabX, grabY float64
	pressed      bool
	cursorSet    bool

	windowWidth  int
	windowHeight int
}

func NewPanel(x, y, width, height float64, title string) *Panel {
	return &Panel{
		children:       children{layout: VerticalLayout{Padding: 6, Spacing: 4}},
		X:              x,
		Y:              y,
		Width:          width,
		Height:         height,
		Title:          title,
		undockedHeight: height,
		windowWidth:    800,
		windowHeight:   600,
	}
}

// UpdateWindowSize keeps docked panels attached to their window edge
func (p *Panel) UpdateWindowSize(width, height int) {
	p.windowWidth = width
	p.windowHeight = height
	if p.dock != dockNone {
		p.dockTo(p.dock)
	}
}

// Dragging reports whether the panel is being moved or resized
func (p *Panel) Dragging() bool {
	return p.drag != dragNone
}

func (p *Panel) dockTo(side dockSide) {
	if p.dock == dockNone {
		p.undockedHeight = p.Height
	}
	p.dock = side
	p.Y = 0
	p.Height = float64(p.windowHeight)
	if side == dockLeft {
		p.X = 0
	} else {
		p.X = float64(p.windowWidth) - p.Width
	}
}

func (p *Panel) undock() {
	p.dock = dockNone
	p.Height = p.undockedHeight
}

// snapSide returns the edge a panel released at x would dock to
func (p *Panel) snapSide(x float64) dockSide {
	switch {
	case x < dockThreshold:
		return dockLeft
	case float64(p.windowWidth)-x < dockThreshold:
		return dockRight
	default:
		return dockNone
	}
}

func (p *Panel) frame() Rectangle {
	h := p.Height
	if p.Collapsed {
		h = titleBarHeight
	}
	return Rectangle{X: p.X, Y: p.Y, Width: p.Width, Height: h}
}

func (p *Panel) collapseBox() Rectangle {
	return Rectangle{X: p.X + p.Width - titleBarHeight, Y: p.Y, Width: titleBarHeight, Height: titleBarHeight}
}

func (p *Panel) inTitleBar(x, y float64) bool {
	bar := Rectangle{X: p.X, Y: p.Y, Width: p.Width - titleBarHeight, Height: titleBarHeight}
	return bar.Contains(x, y)
}

func (p *Panel) inGrip(x, y float64) bool {
	if p.Collapsed || p.dock != dockNone {
		return false
	}
	grip := Rectangle{X: p.X + p.Width - gripSize, Y: p.Y + p.Height - gripSize, Width: gripSize, Height: gripSize}
	return grip.Contains(x, y)
}

// Pointer advances the move/resize/collapse state machine with the mouse
// position and button state of one frame
func (p *Panel) Pointer(x, y float64, pressed bool) {
	justPressed := pressed && !p.pressed
	p.pressed = pressed

	switch {
	case justPressed && p.collapseBox().Contains(x, y):
		p.Collapsed = !p.Collapsed
	case justPressed && p.inTitleBar(x, y):
		p.drag = dragMove
		if p.dock != dockNone {
			p.undock()
		}
		p.grabX, p.grabY = x-p.X, y-p.Y
	case justPressed && p.inGrip(x, y):
		p.drag = dragResize
		p.grabX, p.grabY = p.X+p.Width-x, p.Y+p.Height-y
	}

	if !pressed {
		if p.drag == dragMove {
			if side := p.snapSide(x); side != dockNone {
				p.dockTo(side)
			}
		}
		p.drag = dragNone
		p.preview = dockNone
		return
	}

	switch p.drag {
	case dragMove:
		p.X, p.Y = x-p.grabX, y-p.grabY
		p.preview = p.snapSide(x)
	case dragResize:
		p.Width = max(minPanelWidth, x+p.grabX-p.X)
		p.Height = max(minPanelHeight, y+p.grabY-p.Y)
		p.undockedHeight = p.Height
	}
}

func (p *Panel) updateCursor(x, y float64) {
	switch {
	case p.drag == dragResize || p.inGrip(x, y):
		ebiten.SetCursorShape(ebiten.CursorShapeNWSEResize)
	case p.drag == dragMove || p.inTitleBar(x, y):
		ebiten.SetCursorShape(ebiten.CursorShapeMove)
	default:
		if p.cursorSet {
			ebiten.SetCursorShape(ebiten.CursorShapeDefault)
			p.cursorSet = false
		}
		return
	}
	p.cursorSet = true
}

func (p *Panel) Update() error {
	cx, cy := ebiten.CursorPosition()
	x, y := float64(cx), float64(cy)
	p.updateCursor(x, y)
	p.Pointer(x, y, ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))

	// Children may change size, e.g. when layers are added
	if p.layout != nil {
		p.layout.ArrangeChildren(p)
	}
	return p.update()
}

func (p *Panel) Draw(screen *ebiten.Image) {
	titleColor := color.RGBA{60, 60, 60, panelAlpha}
	f := p.frame()

	if p.preview != dockNone {
		px := float32(0)
		if p.preview == dockRight {
			px = float32(float64(p.windowWidth) - p.Width)
		}
		vector.DrawFilledRect(screen, px, 0, float32(p.Width), float32(p.windowHeight),
			color.RGBA{33, 150, 243, previewAlpha}, true)
	}

	if !p.Collapsed {
		vector.DrawFilledRect(screen, float32(f.X), float32(f.Y), float32(f.Width), float32(f.Height),
			color.RGBA{100, 100, 100, panelAlpha}, true)
	}
	vector.DrawFilledRect(screen, float32(p.X), float32(p.Y), float32(p.Width), float32(titleBarHeight), titleColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X)+4, int(p.Y)+2)

	glyph := "-"
	if p.Collapsed {
		glyph = "+"
	}
	box := p.collapseBox()
	ebitenutil.DebugPrintAt(screen, glyph, int(box.X)+7, int(box.Y)+2)

	if p.Collapsed {
		return
	}
	if p.dock == dockNone {
		gx := float32(p.X + p.Width)
		gy := float32(p.Y + p.Height)
		for i := float32(3); i <= gripSize; i += 3 {
			vector.StrokeLine(screen, gx-i, gy-1, gx-1, gy-i, 1, color.RGBA{200, 200, 200, 255}, true)
		}
	}
	p.draw(screen)
}

// Bounds returns the content area below the title bar in screen coordinates
func (p *Panel) Bounds() Rectangle {
	h := max(0, p.Height-titleBarHeight)
	if p.Collapsed {
		h = 0
	}
	return Rectangle{X: p.X, Y: p.Y + titleBarHeight, Width: p.Width, Height: h}
}

// HandleInput routes clicks in the content area to the panel's children.
// It reports whether the point is over the panel at all.
func (p *Panel) HandleInput(x, y float64, pressed bool) bool {
	inside := p.frame().Contains(x, y)
	content := p.Bounds()
	if !inside || p.Dragging() || !content.Contains(x, y) {
		p.handle(-1, -1, false)
		return inside || p.Dragging()
	}
	p.handle(x-content.X, y-content.Y, pressed)
	return true
}

func (p *Panel) SetParent(parent Container) { p.parent = parent }
func (p *Panel) GetParent() Container       { return p.parent }

func (p *Panel) AddChild(child Component)    { p.add(p, child) }
func (p *Panel) RemoveChild(child Component) { p.remove(p, child) }
func (p *Panel) Children() []Component       { return append([]Component(nil), p.items...) }
func (p *Panel) Layout() Layout              { return p.layout }
