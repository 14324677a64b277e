package ui

import (
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
)

// Component represents the basic building block of the UI system.
// All UI elements must implement this interface.
type Component interface {
	Update() error
	Draw(screen *ebiten.Image)
	Bounds() Rectangle
	HandleInput(x, y float64, pressed bool) bool
	SetParent(parent Container)
	GetParent() Container
}

// Container represents a Component that can hold and manage other Components.
// Bounds of a container is the area its children are positioned in.
type Container interface {
	Component
	AddChild(child Component)
	RemoveChild(child Component)
	Children() []Component
	Layout() Layout
}

// Positioner is implemented by components a Layout can move
type Positioner interface {
	SetPosition(x, y float64)
}

// Rectangle represents the bounds of a Component
type Rectangle struct {
	X, Y          float64
	Width, Height float64
}

// Contains reports whether the point lies inside the rectangle
func (r Rectangle) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// Layout defines how Components are arranged within a Container
type Layout interface {
	ArrangeChildren(container Container)
}

// absolute returns the screen position of a point given relative to the
// component's parent
func absolute(parent Container, x, y float64) (float64, float64) {
	for parent != nil {
		b := parent.Bounds()
		x += b.X
		y += b.Y
		parent = parent.GetParent()
	}
	return x, y
}

// children is the child bookkeeping shared by containers
type children struct {
	items  []Component
	layout Layout
}

func (c *children) add(owner Container, child Component) {
	child.SetParent(owner)
	c.items = append(c.items, child)
	if c.layout != nil {
		c.layout.ArrangeChildren(owner)
	}
}

func (c *children) remove(owner Container, child Component) {
	i := slices.Index(c.items, child)
	if i < 0 {
		return
	}
	c.items = slices.Delete(c.items, i, i+1)
	child.SetParent(nil)
	if c.layout != nil {
		c.layout.ArrangeChildren(owner)
	}
}

// handle routes input in parent-relative coordinates to the topmost child
// under the point
func (c *children) handle(x, y float64, pressed bool) bool {
	handled := false
	for i := len(c.items) - 1; i >= 0; i-- {
		if handled {
			// Reset hover state of the children below the hit one
			c.items[i].HandleInput(-1, -1, false)
			continue
		}
		handled = c.items[i].HandleInput(x, y, pressed)
	}
	return handled
}

func (c *children) update() error {
	for _, child := range c.items {
		if err := child.Update(); err != nil {
			return err
		}
	}
	return nil
}

func (c *children) draw(screen *ebiten.Image) {
	for _, child := range c.items {
		child.Draw(screen)
	}
}
