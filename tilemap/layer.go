package tilemap

import (
	"slices"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/OpticalFlyer/basemaps/proj"
)

// Layer is anything the map can draw
type Layer interface {
	Name() string
	IsBaseLayer() bool
	Visible() bool
	SetVisible(visible bool)

	// SetMap is called when the layer is added to a map.
	SetMap(m *Map)

	// Draw renders the layer for the map's current view.
	Draw(screen *ebiten.Image, m *Map, debugMode bool)
}

// BaseLayer is a layer that carries its own projection-dependent options
// and server parameters
type BaseLayer interface {
	Layer
	Options() LayerOptions
	AddOptions(o LayerOptions)
	Params() Params
	MergeNewParams(p Params)
}

// LayerOptions is the projection-dependent state of a base layer
type LayerOptions struct {
	Projection    proj.Projection
	MaxExtent     proj.Extent
	MaxResolution float64
	Resolutions   []float64
	Units         proj.Units
	// Buffer is the number of extra tiles fetched around the viewport.
	Buffer int
}

// merge overwrites o with the set fields of n
func (o *LayerOptions) merge(n LayerOptions) {
	if n.Projection != nil {
		o.Projection = n.Projection
	}
	if !n.MaxExtent.IsEmpty() {
		o.MaxExtent = n.MaxExtent
	}
	if n.MaxResolution > 0 {
		o.MaxResolution = n.MaxResolution
	}
	if n.Resolutions != nil {
		o.Resolutions = slices.Clone(n.Resolutions)
	}
	if n.Units != "" {
		o.Units = n.Units
	}
	if n.Buffer > 0 {
		o.Buffer = n.Buffer
	}
}

// Params holds server request parameters. Keys are stored upper-case.
type Params map[string]string

// NewParams copies p with upper-cased keys
func NewParams(p map[string]string) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[strings.ToUpper(k)] = v
	}
	return out
}

// Clone returns a copy of p
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// layerState is the bookkeeping shared by every layer kind
type layerState struct {
	name    string
	base    bool
	visible bool
	m       *Map
}

func (s *layerState) Name() string            { return s.name }
func (s *layerState) IsBaseLayer() bool       { return s.base }
func (s *layerState) Visible() bool           { return s.visible }
func (s *layerState) SetVisible(visible bool) { s.visible = visible }
func (s *layerState) SetMap(m *Map)           { s.m = m }
