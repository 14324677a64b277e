package viewer

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilemap"
	"github.com/OpticalFlyer/basemaps/ui"
)

type staticLines struct{}

func (staticLines) Lines(code string) (orb.MultiLineString, error) {
	return orb.MultiLineString{{{0, 0}, {10, 10}}}, nil
}

func newViewer(t *testing.T, opts ...Option) *Viewer {
	t.Helper()
	cfg := config.DefaultConfig()
	selector := ui.NewProjectionSelector(append(cfg.Map.Projections, "EPSG:9999"))
	selector.SetSelectedIndex(2)
	v := New(cfg, selector, ui.NewNotifier(), opts...)
	v.Initialize()
	t.Cleanup(v.Close)
	return v
}

func TestInitialize(t *testing.T) {
	v := newViewer(t)

	assert.Equal(t, 0, v.Selector.SelectedIndex(), "selector is reset to its first option")
	assert.Equal(t, MapElement, v.Map.Target)
	assert.Equal(t, proj.CodeLonLat, v.Map.Projection())
	assert.Equal(t, 16, v.Map.NumZoomLevels())

	layers := v.Map.Layers()
	require.Len(t, layers, 1)
	base := v.Map.BaseLayer()
	require.NotNil(t, base)
	assert.Equal(t, "NASA Blue Marble", base.Name())
	assert.Equal(t, "bluemarble_file", base.Params()["LAYERS"])
	assert.Equal(t, "image/jpeg", base.Params()["FORMAT"])
	assert.Equal(t, 1, base.Options().Buffer)

	controls := v.Map.Controls()
	require.Len(t, controls, 3)
	assert.Equal(t, "LayerSwitcher", controls[0].Name())
	assert.Equal(t, "PanZoomBar", controls[1].Name())
	assert.Equal(t, "MousePosition", controls[2].Name())

	// Zoomed to the whole globe
	assert.Equal(t, 0.0, v.Map.CenterX)
	assert.Equal(t, 0.0, v.Map.CenterY)
	assert.Equal(t, 1, v.Map.Zoom)
}

func TestInitializeWithOverlay(t *testing.T) {
	v := newViewer(t, WithOverlay(staticLines{}))
	layers := v.Map.Layers()
	require.Len(t, layers, 2)
	assert.Equal(t, "Coastlines", layers[1].Name())
	assert.False(t, layers[1].IsBaseLayer())
}

func TestProjectionChangedIdempotent(t *testing.T) {
	v := newViewer(t)
	v.Map.ZoomTo(6)
	v.Map.PanBy(120, -35)
	before := v.Map.Options()
	zoom, cx, cy := v.Map.Zoom, v.Map.CenterX, v.Map.CenterY

	require.NoError(t, v.ProjectionChanged(proj.CodeLonLat))

	assert.Equal(t, before, v.Map.Options())
	assert.Equal(t, zoom, v.Map.Zoom, "no re-zoom")
	assert.Equal(t, cx, v.Map.CenterX)
	assert.Equal(t, cy, v.Map.CenterY)
	assert.NotContains(t, v.Map.BaseLayer().Params(), "SRS")
}

func TestProjectionChangedRejectsUnknown(t *testing.T) {
	v := newViewer(t)
	before := v.Map.Options()
	baseBefore := v.Map.BaseLayer().Options()
	paramsBefore := v.Map.BaseLayer().Params()

	err := v.ProjectionChanged("EPSG:9999")
	require.Error(t, err)
	assert.ErrorIs(t, err, proj.ErrUnrecognizedProjection)
	assert.Contains(t, err.Error(), "EPSG:9999")

	assert.Equal(t, before, v.Map.Options())
	assert.Equal(t, baseBefore, v.Map.BaseLayer().Options())
	assert.Equal(t, paramsBefore, v.Map.BaseLayer().Params())

	msg, ok := v.Notifier.Message()
	assert.True(t, ok)
	assert.Equal(t, "Unrecognized map projection EPSG:9999", msg)
}

func assertConsistent(t *testing.T, v *Viewer) {
	t.Helper()
	m := v.Map.Options()
	b := v.Map.BaseLayer().Options()
	require.NotNil(t, b.Projection)
	assert.Equal(t, m.Projection, b.Projection.Code())
	assert.Equal(t, m.MaxExtent, b.MaxExtent)
	assert.Equal(t, m.MaxResolution, b.MaxResolution)
	assert.Equal(t, m.Resolutions, b.Resolutions)
	assert.Equal(t, m.Units, b.Units)
	assert.Equal(t, m.Projection, v.Map.BaseLayer().Params()["SRS"])
}

func TestProjectionChangedToPolar(t *testing.T) {
	for _, code := range []string{proj.CodeNorthPole, proj.CodeSouthPole} {
		t.Run(code, func(t *testing.T) {
			v := newViewer(t)
			v.Map.ZoomTo(9)

			require.NoError(t, v.ProjectionChanged(code))

			o := v.Map.Options()
			assert.Equal(t, code, o.Projection)
			assert.Equal(t, proj.Meters, o.Units)
			assert.Equal(t, proj.NewExtent(-4350000, -4350000, 8350000, 8350000), o.MaxExtent)
			assert.Equal(t, 24804.6875, o.MaxResolution)
			require.Len(t, o.Resolutions, v.Map.NumZoomLevels())
			for i, r := range o.Resolutions {
				assert.Equal(t, 24804.6875/float64(uint(1)<<i), r)
			}
			assertConsistent(t, v)

			// Re-zoomed to the polar window
			assert.Equal(t, 0, v.Map.Zoom)
			assert.Equal(t, 2000000.0, v.Map.CenterX)
			assert.Equal(t, 2000000.0, v.Map.CenterY)
		})
	}
}

func TestProjectionChangedBackToPlateCarree(t *testing.T) {
	v := newViewer(t)
	require.NoError(t, v.ProjectionChanged(proj.CodeSouthPole))
	require.NoError(t, v.ProjectionChanged(proj.CodeLonLat))

	o := v.Map.Options()
	assert.Equal(t, proj.CodeLonLat, o.Projection)
	assert.Equal(t, proj.Degrees, o.Units)
	assert.Equal(t, 1.40625, o.MaxResolution)
	assert.Equal(t, 360.0/256, o.Resolutions[0])
	assert.Equal(t, proj.NewExtent(-180, -90, 180, 90), o.MaxExtent)
	assertConsistent(t, v)
}

func TestProjectionChangedNotInitialized(t *testing.T) {
	v := New(config.DefaultConfig(), ui.NewProjectionSelector(nil), ui.NewNotifier())
	assert.ErrorIs(t, v.ProjectionChanged(proj.CodeNorthPole), ErrNotInitialized)
}

func TestBind(t *testing.T) {
	v := newViewer(t)
	v.Bind()
	v.Bind()

	calls := 0
	v.Selector.OnChange(func(string) { calls++ })

	v.Selector.Choose(1)
	assert.Equal(t, proj.CodeNorthPole, v.Map.Projection())
	assert.Equal(t, 1, calls)

	v.Selector.Choose(3)
	assert.Equal(t, proj.CodeNorthPole, v.Map.Projection(), "rejected switch keeps the projection")
	_, ok := v.Notifier.Message()
	assert.True(t, ok)

	var _ tilemap.Control = v.PanZoomBar
}
