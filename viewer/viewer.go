package viewer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilemap"
	"github.com/OpticalFlyer/basemaps/ui"
)

// MapElement is the element id the map is rendered into
const MapElement = "map"

// ErrNotInitialized is returned when a projection switch arrives before the
// map exists
var ErrNotInitialized = errors.New("viewer is not initialized")

// Viewer owns the map, its base layer and controls, and the projection
// selector driving them
type Viewer struct {
	Config   *config.Config
	Map      *tilemap.Map
	Selector *ui.Selector
	Notifier *ui.Notifier

	LayerSwitcher *ui.LayerSwitcher
	PanZoomBar    *ui.PanZoomBar
	MousePosition *ui.MousePosition

	fetcher *tilemap.Fetcher
	overlay tilemap.LineSource
	log     *zap.Logger
	bound   bool
}

// Option configures a Viewer
type Option func(*Viewer)

func WithLogger(log *zap.Logger) Option {
	return func(v *Viewer) {
		v.log = log
	}
}

// WithFetcher sets the fetcher used by the base layer to download tiles
func WithFetcher(f *tilemap.Fetcher) Option {
	return func(v *Viewer) {
		v.fetcher = f
	}
}

// WithOverlay adds a vector overlay drawn from source above the base layer
func WithOverlay(source tilemap.LineSource) Option {
	return func(v *Viewer) {
		v.overlay = source
	}
}

// New creates a viewer. Call Initialize to build the map.
func New(cfg *config.Config, selector *ui.Selector, notifier *ui.Notifier, opts ...Option) *Viewer {
	v := &Viewer{
		Config:   cfg,
		Selector: selector,
		Notifier: notifier,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Initialize resets the projection selector, builds the map with its base
// layer and controls, and shows the whole extent
func (v *Viewer) Initialize() {
	cfg := v.Config

	// The selector may still show a choice from a previous session
	v.Selector.SetSelectedIndex(0)

	v.Map = tilemap.New(MapElement,
		tilemap.WithNumZoomLevels(cfg.Map.ZoomLevels),
		tilemap.WithViewport(cfg.Window.Width, cfg.Window.Height),
		tilemap.WithLogger(v.log.Named("map")))

	base := tilemap.NewWMSLayer(cfg.WMS.Title, cfg.WMS.URL,
		tilemap.Params{
			"layers": cfg.WMS.Layer,
			"format": cfg.WMS.Format,
		},
		tilemap.LayerOptions{Buffer: cfg.WMS.Buffer},
		v.fetcher, v.log)
	v.Map.AddLayers(base)

	v.LayerSwitcher = ui.NewLayerSwitcher()
	v.PanZoomBar = ui.NewPanZoomBar(10, 10)
	v.MousePosition = ui.NewMousePosition()
	v.Map.AddControl(v.LayerSwitcher)
	v.Map.AddControl(v.PanZoomBar)
	v.Map.AddControl(v.MousePosition)

	if v.overlay != nil {
		v.Map.AddLayers(tilemap.NewVectorLayer(cfg.Overlay.Title, v.overlay, v.log))
	}

	v.Map.ZoomToMaxExtent()

	v.log.Info("map initialized",
		zap.String("projection", v.Map.Projection()),
		zap.String("wms", cfg.WMS.URL),
		zap.String("layer", cfg.WMS.Layer),
		zap.Int("zoom_levels", v.Map.NumZoomLevels()))
}

// ProjectionChanged switches the map and its base layer to the projection
// identified by code. Selecting the current projection does nothing. An
// unrecognized code is reported to the user and leaves the map untouched.
func (v *Viewer) ProjectionChanged(code string) error {
	if v.Map == nil {
		return ErrNotInitialized
	}
	if code == v.Map.Projection() {
		return nil
	}

	profile, err := proj.ProfileFor(code, v.Map.NumZoomLevels())
	if err != nil {
		v.Notifier.Alert("Unrecognized map projection " + code)
		v.log.Warn("projection switch rejected", zap.String("projection", code), zap.Error(err))
		return fmt.Errorf("switching projection: %w", err)
	}
	projection, err := proj.ForCode(code)
	if err != nil {
		v.Notifier.Alert("Unrecognized map projection " + code)
		return fmt.Errorf("switching projection: %w", err)
	}

	base := v.Map.BaseLayer()
	if base != nil {
		base.AddOptions(tilemap.LayerOptions{
			Projection:    projection,
			MaxExtent:     profile.MaxExtent,
			MaxResolution: profile.MaxResolution,
			Resolutions:   profile.Resolutions,
			Units:         profile.Units,
		})
	}
	v.Map.SetOptions(tilemap.MapOptions{
		Projection:    profile.Code,
		MaxExtent:     profile.MaxExtent,
		MaxResolution: profile.MaxResolution,
		Resolutions:   profile.Resolutions,
		Units:         profile.Units,
	})
	if base != nil {
		base.MergeNewParams(tilemap.Params{"srs": profile.Code})
	}
	v.Map.ZoomToMaxExtent()

	v.log.Info("projection switched",
		zap.String("projection", profile.Code),
		zap.Stringer("extent", profile.MaxExtent),
		zap.String("units", string(profile.Units)),
		zap.Float64("max_resolution", profile.MaxResolution))
	return nil
}

// Bind subscribes the projection switch to the selector's change event.
// Repeated calls have no effect.
func (v *Viewer) Bind() {
	if v.bound {
		return
	}
	v.bound = true
	v.Selector.OnChange(func(code string) {
		// Rejections are already shown to the user
		_ = v.ProjectionChanged(code)
	})
}

// Close releases the map's layers
func (v *Viewer) Close() {
	if v.Map != nil {
		v.Map.Close()
	}
}
