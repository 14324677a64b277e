package tilemap

// ZoomIn increases the zoom level if not at max zoom
func (m *Map) ZoomIn() {
	if m.Zoom < m.options.NumZoomLevels-1 {
		m.Zoom++
	}
}

// ZoomOut decreases the zoom level if not at minimum zoom
func (m *Map) ZoomOut() {
	if m.Zoom > 0 {
		m.Zoom--
	}
}

// ZoomTo sets the zoom level, clamped to the resolution ladder
func (m *Map) ZoomTo(zoom int) {
	m.Zoom = m.clampZoom(zoom)
}

// ZoomAtPoint zooms the map while keeping the map point under the given
// screen location in place
func (m *Map) ZoomAtPoint(zoomIn bool, screenX, screenY float64) {
	if (zoomIn && m.Zoom >= m.options.NumZoomLevels-1) || (!zoomIn && m.Zoom <= 0) {
		return
	}

	// Get the cursor position in map units before zoom
	mouseX, mouseY := m.ScreenToMap(screenX, screenY)

	// Don't zoom if cursor is outside the map
	if !m.options.MaxExtent.Contains(mouseX, mouseY) {
		return
	}

	if zoomIn {
		m.Zoom++
	} else {
		m.Zoom--
	}

	// Place the new center so the cursor stays over the same map point
	res := m.Resolution()
	m.CenterX = mouseX - (screenX-float64(m.ScreenWidth)/2)*res
	m.CenterY = mouseY + (screenY-float64(m.ScreenHeight)/2)*res
	m.clampCenter()
}
