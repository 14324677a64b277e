package ui

// VerticalLayout stacks children top to bottom
type VerticalLayout struct {
	Padding float64
	Spacing float64
}

func (l VerticalLayout) ArrangeChildren(container Container) {
	y := l.Padding
	for _, child := range container.Children() {
		if p, ok := child.(Positioner); ok {
			p.SetPosition(l.Padding, y)
		}
		y += child.Bounds().Height + l.Spacing
	}
}
