package tilemap

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/proj"
)

const (
	// TileSize is the size of map tiles in pixels
	TileSize = proj.TileSize
	// DefaultNumZoomLevels is the length of the resolution ladder of a new map
	DefaultNumZoomLevels = 16
)

// TileRange defines the range of tiles needed to cover the viewport
type TileRange struct {
	MinX, MaxX int
	MinY, MaxY int
}

// Empty reports whether the range contains no tiles
func (r TileRange) Empty() bool {
	return r.MaxX < r.MinX || r.MaxY < r.MinY
}

// Count returns the number of tiles in the range
func (r TileRange) Count() int {
	if r.Empty() {
		return 0
	}
	return (r.MaxX - r.MinX + 1) * (r.MaxY - r.MinY + 1)
}

// TileKey uniquely identifies a map tile
type TileKey struct {
	Zoom int
	X    int
	Y    int
}

// MapOptions is the projection-dependent state of a Map
type MapOptions struct {
	Projection    string
	MaxExtent     proj.Extent
	MaxResolution float64
	Resolutions   []float64
	Units         proj.Units
	NumZoomLevels int
}

// Map manages the view state, the layers and the controls of a map
// rendered into the element named Target.
type Map struct {
	Target string

	// View state, in map units
	CenterX      float64
	CenterY      float64
	Zoom         int
	ScreenWidth  int
	ScreenHeight int

	options   MapOptions
	layers    []Layer
	baseLayer BaseLayer
	controls  []Control

	log *zap.Logger
}

// Option configures a Map at construction
type Option func(*Map)

// WithNumZoomLevels sets the number of zoom levels of the map
func WithNumZoomLevels(n int) Option {
	return func(m *Map) {
		m.options.NumZoomLevels = n
		m.options.Resolutions = proj.ResolutionLadder(m.options.MaxResolution, n)
	}
}

// WithViewport sets the initial viewport size in pixels
func WithViewport(width, height int) Option {
	return func(m *Map) {
		m.ScreenWidth = width
		m.ScreenHeight = height
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(m *Map) {
		m.log = log
	}
}

// New creates a map bound to the target element. The map starts in the
// geographic projection with the whole globe as its extent.
func New(target string, opts ...Option) *Map {
	m := &Map{
		Target:       target,
		ScreenWidth:  800,
		ScreenHeight: 600,
		options: MapOptions{
			Projection:    proj.CodeLonLat,
			MaxExtent:     proj.LonLatExtent,
			MaxResolution: proj.PlateCarreeResolution,
			Resolutions:   proj.ResolutionLadder(proj.PlateCarreeResolution, DefaultNumZoomLevels),
			Units:         proj.Degrees,
			NumZoomLevels: DefaultNumZoomLevels,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.CenterX, m.CenterY = m.options.MaxExtent.Center()
	return m
}

// Projection returns the identifier of the map's coordinate reference system
func (m *Map) Projection() string {
	return m.options.Projection
}

// NumZoomLevels returns the configured number of zoom levels
func (m *Map) NumZoomLevels() int {
	return m.options.NumZoomLevels
}

// Options returns a copy of the map's projection-dependent state
func (m *Map) Options() MapOptions {
	o := m.options
	o.Resolutions = slices.Clone(m.options.Resolutions)
	return o
}

// SetOptions replaces the projection-dependent state with the non-zero
// fields of o. The zoom level and center are clamped to the new state, but
// the view is not otherwise moved; callers normally follow with
// ZoomToMaxExtent.
func (m *Map) SetOptions(o MapOptions) {
	if o.Projection != "" {
		m.options.Projection = o.Projection
	}
	if !o.MaxExtent.IsEmpty() {
		m.options.MaxExtent = o.MaxExtent
	}
	if o.MaxResolution > 0 {
		m.options.MaxResolution = o.MaxResolution
	}
	if o.Units != "" {
		m.options.Units = o.Units
	}
	if o.NumZoomLevels > 0 {
		m.options.NumZoomLevels = o.NumZoomLevels
	}
	if o.Resolutions != nil {
		m.options.Resolutions = slices.Clone(o.Resolutions)
	}

	m.Zoom = m.clampZoom(m.Zoom)
	m.clampCenter()

	m.log.Debug("map options set",
		zap.String("projection", m.options.Projection),
		zap.Stringer("extent", m.options.MaxExtent),
		zap.String("units", string(m.options.Units)),
		zap.Float64("max_resolution", m.options.MaxResolution),
		zap.Int("zoom_levels", len(m.options.Resolutions)))
}

// Resolution returns the map units per pixel at the current zoom level
func (m *Map) Resolution() float64 {
	return m.ResolutionAt(m.Zoom)
}

// ResolutionAt returns the map units per pixel at zoom level z
func (m *Map) ResolutionAt(z int) float64 {
	if z >= 0 && z < len(m.options.Resolutions) {
		return m.options.Resolutions[z]
	}
	return m.options.MaxResolution / math.Pow(2, float64(z))
}

// ZoomForExtent returns the deepest zoom level at which the whole extent
// still fits in the viewport
func (m *Map) ZoomForExtent(e proj.Extent) int {
	if m.ScreenWidth <= 0 || m.ScreenHeight <= 0 {
		return 0
	}
	ideal := math.Max(e.Width()/float64(m.ScreenWidth), e.Height()/float64(m.ScreenHeight))

	zoom := 0
	for z := 0; z < m.options.NumZoomLevels; z++ {
		if m.ResolutionAt(z) < ideal {
			break
		}
		zoom = z
	}
	return zoom
}

// ZoomToMaxExtent centres the map on its maximal extent at the deepest zoom
// level that shows all of it
func (m *Map) ZoomToMaxExtent() {
	e := m.options.MaxExtent
	m.CenterX, m.CenterY = e.Center()
	m.Zoom = m.ZoomForExtent(e)
	m.log.Debug("zoomed to max extent",
		zap.Int("zoom", m.Zoom),
		zap.Float64("resolution", m.Resolution()))
}

// ScreenToMap converts viewport pixel coordinates to map coordinates
func (m *Map) ScreenToMap(screenX, screenY float64) (x, y float64) {
	return proj.ScreenToMap(screenX, screenY, m.CenterX, m.CenterY, m.Resolution(), m.ScreenWidth, m.ScreenHeight)
}

// MapToScreen converts map coordinates to viewport pixel coordinates
func (m *Map) MapToScreen(x, y float64) (screenX, screenY float64) {
	return proj.MapToScreen(x, y, m.CenterX, m.CenterY, m.Resolution(), m.ScreenWidth, m.ScreenHeight)
}

// ViewExtent returns the map extent currently covered by the viewport
func (m *Map) ViewExtent() proj.Extent {
	left, top := m.ScreenToMap(0, 0)
	right, bottom := m.ScreenToMap(float64(m.ScreenWidth), float64(m.ScreenHeight))
	return proj.NewExtent(left, bottom, right, top)
}

// TileRange determines which tiles of the grid anchored on extent are
// needed for the current view, grown by buffer tiles on every side
func (m *Map) TileRange(extent proj.Extent, buffer int) (TileRange, float64, float64) {
	res := m.Resolution()
	centerXTileF, centerYTileF := proj.MapToTileCoords(m.CenterX, m.CenterY, extent, res)

	topLeftXTileF := centerXTileF - float64(m.ScreenWidth)/2.0/TileSize
	topLeftYTileF := centerYTileF - float64(m.ScreenHeight)/2.0/TileSize
	bottomRightXTileF := centerXTileF + float64(m.ScreenWidth)/2.0/TileSize
	bottomRightYTileF := centerYTileF + float64(m.ScreenHeight)/2.0/TileSize

	minTileX := int(math.Floor(topLeftXTileF)) - buffer
	minTileY := int(math.Floor(topLeftYTileF)) - buffer
	maxTileX := int(math.Floor(bottomRightXTileF)) + buffer
	maxTileY := int(math.Floor(bottomRightYTileF)) + buffer

	cols, rows := proj.GridSize(extent, res)
	return TileRange{
		MinX: max(0, minTileX),
		MaxX: min(cols-1, maxTileX),
		MinY: max(0, minTileY),
		MaxY: min(rows-1, maxTileY),
	}, centerXTileF, centerYTileF
}

func (m *Map) clampZoom(z int) int {
	return max(0, min(z, m.options.NumZoomLevels-1))
}

// clampCenter keeps the view centre inside the maximal extent
func (m *Map) clampCenter() {
	e := m.options.MaxExtent
	m.CenterX = math.Max(e.Left, math.Min(e.Right, m.CenterX))
	m.CenterY = math.Max(e.Bottom, math.Min(e.Top, m.CenterY))
}

// AddLayers adds layers to the map. The first base layer added becomes the
// map's base layer.
func (m *Map) AddLayers(layers ...Layer) {
	for _, l := range layers {
		l.SetMap(m)
		m.layers = append(m.layers, l)
		if b, ok := l.(BaseLayer); ok && l.IsBaseLayer() && m.baseLayer == nil {
			m.baseLayer = b
		}
		m.log.Debug("layer added", zap.String("layer", l.Name()), zap.Bool("base", l.IsBaseLayer()))
	}
}

// Layers returns the map's layers in drawing order
func (m *Map) Layers() []Layer {
	return slices.Clone(m.layers)
}

// BaseLayer returns the layer that defines the map's projection, or nil
func (m *Map) BaseLayer() BaseLayer {
	return m.baseLayer
}

// SetBaseLayer makes one of the map's base layers the visible one
func (m *Map) SetBaseLayer(b BaseLayer) {
	if !slices.Contains(m.layers, Layer(b)) {
		return
	}
	for _, l := range m.layers {
		if l.IsBaseLayer() {
			l.SetVisible(l == Layer(b))
		}
	}
	m.baseLayer = b
}

// AddControl attaches a control to the map
func (m *Map) AddControl(c Control) {
	c.Attach(m)
	m.controls = append(m.controls, c)
	m.log.Debug("control added", zap.String("control", c.Name()))
}

// Controls returns the controls attached to the map
func (m *Map) Controls() []Control {
	return slices.Clone(m.controls)
}

// Close releases the resources held by the map's layers
func (m *Map) Close() {
	for _, l := range m.layers {
		if c, ok := l.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
