package tilemap

import "github.com/hajimehoshi/ebiten/v2"

// Draw renders the visible layers, base layer first, and returns the tile
// range used by the base layer
func (m *Map) Draw(screen *ebiten.Image, debugMode bool) TileRange {
	var tileRange TileRange
	if b := m.baseLayer; b != nil && b.Visible() {
		b.Draw(screen, m, debugMode)
		o := b.Options()
		extent := o.MaxExtent
		if extent.IsEmpty() {
			extent = m.options.MaxExtent
		}
		tileRange, _, _ = m.TileRange(extent, o.Buffer)
	}

	for _, l := range m.layers {
		if l.IsBaseLayer() || !l.Visible() {
			continue
		}
		l.Draw(screen, m, debugMode)
	}
	return tileRange
}
