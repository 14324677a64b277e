package tilemap

// Control is a widget attached to a map, such as a layer switcher or a
// pan/zoom bar
type Control interface {
	Name() string

	// Attach is called when the control is added to a map.
	Attach(m *Map)
}
