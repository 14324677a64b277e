package ui

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// windowSized is implemented by components positioned against the window
type windowSized interface {
	UpdateWindowSize(width, height int)
}

// Controller manages all UI elements
type Controller struct {
	panels     []*Panel
	components []Component

	// hovering is set while the cursor is over any UI element
	hovering bool
}

// NewController creates a new UI controller
func NewController() *Controller {
	return &Controller{
		panels: make([]*Panel, 0),
	}
}

// AddPanel adds a new panel to the UI
func (c *Controller) AddPanel(panel *Panel) {
	c.panels = append(c.panels, panel)
}

// AddComponent adds a free-floating component drawn above the panels
func (c *Controller) AddComponent(component Component) {
	c.components = append(c.components, component)
}

// Update updates all UI elements and dispatches the mouse state to them
func (c *Controller) Update() error {
	for _, panel := range c.panels {
		if err := panel.Update(); err != nil {
			return err
		}
	}
	for _, component := range c.components {
		if err := component.Update(); err != nil {
			return err
		}
	}

	x, y := ebiten.CursorPosition()
	c.HandleInput(float64(x), float64(y), ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft))
	return nil
}

// HandleInput routes a pointer event to the topmost element under it and
// reports whether any element took it
func (c *Controller) HandleInput(x, y float64, pressed bool) bool {
	handled := false
	for i := len(c.components) - 1; i >= 0; i-- {
		if handled {
			c.components[i].HandleInput(-1, -1, false)
			continue
		}
		handled = c.components[i].HandleInput(x, y, pressed)
	}
	for i := len(c.panels) - 1; i >= 0; i-- {
		if handled {
			c.panels[i].HandleInput(-1, -1, false)
			continue
		}
		handled = c.panels[i].HandleInput(x, y, pressed)
	}
	c.hovering = handled
	return handled
}

// Draw draws all UI elements
func (c *Controller) Draw(screen *ebiten.Image) {
	for _, panel := range c.panels {
		panel.Draw(screen)
	}
	for _, component := range c.components {
		component.Draw(screen)
	}
}

// UpdateWindowSize updates the window size for all panels
func (c *Controller) UpdateWindowSize(width, height int) {
	for _, panel := range c.panels {
		panel.UpdateWindowSize(width, height)
	}
	for _, component := range c.components {
		if w, ok := component.(windowSized); ok {
			w.UpdateWindowSize(width, height)
		}
	}
}

// ShowDebugInfo draws debug information
func (c *Controller) ShowDebugInfo(screen *ebiten.Image) {
	fps := ebiten.ActualFPS()
	tps := ebiten.ActualTPS()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("FPS: %.2f TPS: %.2f", fps, tps))
}

// IsInteractingWithUI returns true if any UI element is being interacted with
func (c *Controller) IsInteractingWithUI() bool {
	if c.hovering {
		return true
	}
	for _, panel := range c.panels {
		if panel.Dragging() {
			return true
		}
	}
	return false
}
