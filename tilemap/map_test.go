package tilemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpticalFlyer/basemaps/proj"
)

type recordingControl struct {
	name string
	m    *Map
}

func (c *recordingControl) Name() string  { return c.name }
func (c *recordingControl) Attach(m *Map) { c.m = m }

func polarOptions(t *testing.T, code string) MapOptions {
	t.Helper()
	p, err := proj.ProfileFor(code, DefaultNumZoomLevels)
	require.NoError(t, err)
	return MapOptions{
		Projection:    p.Code,
		MaxExtent:     p.MaxExtent,
		MaxResolution: p.MaxResolution,
		Resolutions:   p.Resolutions,
		Units:         p.Units,
	}
}

func TestNewMapDefaults(t *testing.T) {
	m := New("map")
	assert.Equal(t, "map", m.Target)
	assert.Equal(t, proj.CodeLonLat, m.Projection())
	assert.Equal(t, DefaultNumZoomLevels, m.NumZoomLevels())

	o := m.Options()
	assert.Equal(t, proj.LonLatExtent, o.MaxExtent)
	assert.Equal(t, proj.Degrees, o.Units)
	require.Len(t, o.Resolutions, DefaultNumZoomLevels)
	assert.Equal(t, 1.40625, o.Resolutions[0])
	assert.Equal(t, 0.0, m.CenterX)
	assert.Equal(t, 0.0, m.CenterY)

	o.Resolutions[0] = 99
	assert.Equal(t, 1.40625, m.Options().Resolutions[0], "options are returned by copy")
}

func TestWithNumZoomLevels(t *testing.T) {
	m := New("map", WithNumZoomLevels(4), WithViewport(512, 256))
	assert.Equal(t, 4, m.NumZoomLevels())
	assert.Len(t, m.Options().Resolutions, 4)
	assert.Equal(t, 512, m.ScreenWidth)

	m.ZoomTo(10)
	assert.Equal(t, 3, m.Zoom)
	m.ZoomIn()
	assert.Equal(t, 3, m.Zoom)
	m.ZoomTo(-2)
	assert.Equal(t, 0, m.Zoom)
	m.ZoomOut()
	assert.Equal(t, 0, m.Zoom)
}

func TestZoomToMaxExtent(t *testing.T) {
	m := New("map", WithViewport(800, 600))
	m.Zoom = 7
	m.ZoomToMaxExtent()
	// 360° across 800 pixels needs 0.45°/px, the deepest rung coarser than that is 0.703125
	assert.Equal(t, 1, m.Zoom)
	assert.Equal(t, 0.703125, m.Resolution())

	m.SetOptions(polarOptions(t, proj.CodeNorthPole))
	m.ZoomToMaxExtent()
	assert.Equal(t, 0, m.Zoom)
	cx, cy := proj.PolarWindow.Center()
	assert.Equal(t, cx, m.CenterX)
	assert.Equal(t, cy, m.CenterY)
	assert.Equal(t, proj.PolarMaxResolution, m.Resolution())
}

func TestZoomForExtentTinyViewport(t *testing.T) {
	m := New("map", WithViewport(0, 0))
	assert.Equal(t, 0, m.ZoomForExtent(proj.LonLatExtent))

	m = New("map", WithViewport(2048, 1024))
	assert.Equal(t, 3, m.ZoomForExtent(proj.LonLatExtent))
}

func TestSetOptions(t *testing.T) {
	m := New("map")
	m.ZoomTo(12)
	m.CenterX, m.CenterY = 170, 80

	polar := polarOptions(t, proj.CodeSouthPole)
	polar.NumZoomLevels = 8
	polar.Resolutions = proj.ResolutionLadder(polar.MaxResolution, 8)
	m.SetOptions(polar)

	o := m.Options()
	assert.Equal(t, proj.CodeSouthPole, o.Projection)
	assert.Equal(t, proj.Meters, o.Units)
	assert.Equal(t, proj.PolarWindow, o.MaxExtent)
	assert.Equal(t, 7, m.Zoom, "zoom is clamped to the new ladder")
	assert.Equal(t, 170.0, m.CenterX)
	assert.Equal(t, 80.0, m.CenterY)

	// Zero fields leave the options untouched but still clamp the view
	m.CenterX, m.CenterY = -1e9, 1e9
	m.SetOptions(MapOptions{})
	assert.Equal(t, o, m.Options())
	assert.Equal(t, proj.PolarWindow.Left, m.CenterX)
	assert.Equal(t, proj.PolarWindow.Top, m.CenterY)
}

func TestPanBy(t *testing.T) {
	m := New("map", WithViewport(800, 600))
	m.ZoomTo(2)
	res := m.Resolution()

	m.PanBy(100, -40)
	assert.InDelta(t, -100*res, m.CenterX, 1e-9)
	assert.InDelta(t, -40*res, m.CenterY, 1e-9)

	m.Pan(PanRight)
	assert.InDelta(t, -50*res, m.CenterX, 1e-9)

	m.PanBy(-1e6, -1e6)
	assert.Equal(t, 180.0, m.CenterX)
	assert.Equal(t, -90.0, m.CenterY)

	m.PanTo(-500, 10)
	assert.Equal(t, -180.0, m.CenterX)
	assert.Equal(t, 10.0, m.CenterY)
}

func TestZoomAtPoint(t *testing.T) {
	m := New("map", WithViewport(800, 600))
	m.ZoomTo(3)

	sx, sy := 600.0, 150.0
	beforeX, beforeY := m.ScreenToMap(sx, sy)
	m.ZoomAtPoint(true, sx, sy)
	assert.Equal(t, 4, m.Zoom)
	afterX, afterY := m.ScreenToMap(sx, sy)
	assert.InDelta(t, beforeX, afterX, 1e-9)
	assert.InDelta(t, beforeY, afterY, 1e-9)

	m.ZoomAtPoint(false, sx, sy)
	assert.Equal(t, 3, m.Zoom)

	// Outside the map nothing happens
	m.ZoomTo(0)
	m.ZoomAtPoint(true, 0, 0)
	assert.Equal(t, 0, m.Zoom)
}

func TestTileRange(t *testing.T) {
	m := New("map", WithViewport(800, 600))
	m.ZoomTo(0)
	r, _, _ := m.TileRange(proj.LonLatExtent, 1)
	assert.Equal(t, TileRange{MinX: 0, MaxX: 0, MinY: 0, MaxY: 0}, r)
	assert.Equal(t, 1, r.Count())

	m.ZoomTo(3)
	r, cx, cy := m.TileRange(proj.LonLatExtent, 0)
	assert.Equal(t, 4.0, cx)
	assert.Equal(t, 2.0, cy)
	assert.Equal(t, TileRange{MinX: 2, MaxX: 5, MinY: 0, MaxY: 3}, r)

	r, _, _ = m.TileRange(proj.LonLatExtent, 1)
	assert.Equal(t, TileRange{MinX: 1, MaxX: 6, MinY: 0, MaxY: 3}, r)

	assert.True(t, TileRange{MinX: 1, MaxX: 0}.Empty())
	assert.Equal(t, 0, TileRange{MinX: 1, MaxX: 0}.Count())
}

func TestViewExtent(t *testing.T) {
	m := New("map", WithViewport(800, 600))
	m.ZoomTo(1)
	assert.Equal(t, proj.NewExtent(-281.25, -210.9375, 281.25, 210.9375), m.ViewExtent())
}

func TestLayersAndControls(t *testing.T) {
	m := New("map")
	a := NewWMSLayer("a", "http://localhost/wms", nil, LayerOptions{}, nil, nil)
	b := NewWMSLayer("b", "http://localhost/wms", nil, LayerOptions{}, nil, nil)
	v := NewVectorLayer("lines", nil, nil)
	m.AddLayers(a, v, b)

	assert.Len(t, m.Layers(), 3)
	assert.Same(t, a, m.BaseLayer())
	assert.Same(t, m, a.m)
	assert.Same(t, m, v.m)

	m.SetBaseLayer(b)
	assert.Same(t, b, m.BaseLayer())
	assert.False(t, a.Visible())
	assert.True(t, b.Visible())
	assert.True(t, v.Visible())

	other := NewWMSLayer("other", "http://localhost/wms", nil, LayerOptions{}, nil, nil)
	m.SetBaseLayer(other)
	assert.Same(t, b, m.BaseLayer(), "layers not on the map are ignored")

	c := &recordingControl{name: "switcher"}
	m.AddControl(c)
	assert.Same(t, m, c.m)
	require.Len(t, m.Controls(), 1)
	assert.Equal(t, "switcher", m.Controls()[0].Name())
}
