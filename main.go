package main

import (
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/logger"
	"github.com/OpticalFlyer/basemaps/overlay"
	"github.com/OpticalFlyer/basemaps/tilecache"
	"github.com/OpticalFlyer/basemaps/tilemap"
	"github.com/OpticalFlyer/basemaps/ui"
	"github.com/OpticalFlyer/basemaps/viewer"
)

var (
	configFile string
	settings   = config.New()
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "basemaps",
	Short: "Blue Marble basemap viewer with polar stereographic projections",
	Long: `basemaps shows a WMS basemap and switches it between the
geographic projection (EPSG:4326) and the north and south Universal Polar
Stereographic projections (EPSG:32661, EPSG:32761).

Run "basemaps serve" to host the WMS server the viewer reads from.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(settings, configFile); err != nil {
			return err
		}

		// Initialize logger with optional file output
		if cfg.Log.File != "" {
			logger.InitWithFile(cfg.Verbose, cfg.Log.File)
		} else {
			logger.Init(cfg.Verbose)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runViewer(cfg)
	},
}

func init() {
	defaults := config.DefaultConfig()

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.String("log-file", "", "Path to log file for persistent logging (JSON format)")
	_ = settings.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = settings.BindPFlag("log.file", pf.Lookup("log-file"))

	// Viewer flags
	f := rootCmd.Flags()
	f.String("wms-url", defaults.WMS.URL, "WMS endpoint of the base layer")
	f.String("layer", defaults.WMS.Layer, "WMS layer of the base layer")
	f.Int("zoom-levels", defaults.Map.ZoomLevels, "Number of zoom levels")
	f.String("cache-dir", "", "Directory of the persistent tile cache (memory only when empty)")
	f.String("overlay", "", "Shapefile or GeoJSON file drawn over the base layer")
	_ = settings.BindPFlag("wms.url", f.Lookup("wms-url"))
	_ = settings.BindPFlag("wms.layer", f.Lookup("layer"))
	_ = settings.BindPFlag("map.zoom_levels", f.Lookup("zoom-levels"))
	_ = settings.BindPFlag("cache.dir", f.Lookup("cache-dir"))
	_ = settings.BindPFlag("overlay.shapefile", f.Lookup("overlay"))
}

func runViewer(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := logger.Get()

	mem, err := tilecache.NewMemory(cfg.Cache.Entries)
	if err != nil {
		return err
	}
	store := &tilecache.Layered{Memory: mem}
	if cfg.Cache.Dir != "" {
		disk, err := tilecache.OpenBolt(filepath.Join(cfg.Cache.Dir, "tiles.db"))
		if err != nil {
			return err
		}
		defer disk.Close()
		store.Next = disk
	}

	fetcher := tilemap.NewFetcher(tilemap.FetcherConfig{
		Store:       store,
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Fetch.Timeout,
		RetryAfter:  cfg.Fetch.RetryAfter,
		UserAgent:   cfg.Fetch.UserAgent,
		Logger:      log.Named("fetch"),
	})
	defer fetcher.Close()

	opts := []viewer.Option{
		viewer.WithLogger(log.Named("viewer")),
		viewer.WithFetcher(fetcher),
	}
	if cfg.Overlay.Shapefile != "" {
		src, err := overlay.Load(cfg.Overlay.Shapefile)
		if err != nil {
			return err
		}
		log.Info("overlay loaded",
			zap.String("path", cfg.Overlay.Shapefile),
			zap.Int("lines", src.Len()))
		opts = append(opts, viewer.WithOverlay(src))
	}

	selector := ui.NewProjectionSelector(cfg.Map.Projections)
	notifier := ui.NewNotifier()
	v := viewer.New(cfg, selector, notifier, opts...)
	v.Initialize()
	v.Bind()
	defer v.Close()

	controller := ui.NewController()
	layersPanel := ui.NewPanel(float64(cfg.Window.Width)-210, 10, 200, 240, "Layers")
	layersPanel.AddChild(v.LayerSwitcher)
	layersPanel.AddChild(selector)
	controller.AddPanel(layersPanel)
	controller.AddComponent(v.PanZoomBar)
	controller.AddComponent(v.MousePosition)
	controller.AddComponent(notifier)

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetVsyncEnabled(true)

	return ebiten.RunGame(newGame(v, controller))
}

func main() {
	err := rootCmd.Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
