package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/OpticalFlyer/basemaps/proj"
)

// WMSConfig describes the imagery endpoint of the base layer
type WMSConfig struct {
	URL    string `mapstructure:"url"`
	Title  string `mapstructure:"title"`
	Layer  string `mapstructure:"layer"`
	Format string `mapstructure:"format"`
	Buffer int    `mapstructure:"buffer"`
}

// MapConfig holds the map's zoom ladder length and selectable projections
type MapConfig struct {
	ZoomLevels  int      `mapstructure:"zoom_levels"`
	Projections []string `mapstructure:"projections"`
}

type WindowConfig struct {
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
	Title  string `mapstructure:"title"`
}

// CacheConfig controls the viewer's tile cache. An empty Dir keeps tiles in
// memory only.
type CacheConfig struct {
	Dir     string `mapstructure:"dir"`
	Entries int    `mapstructure:"entries"`
}

type FetchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryAfter  time.Duration `mapstructure:"retry_after"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type OverlayConfig struct {
	Shapefile string `mapstructure:"shapefile"`
	Title     string `mapstructure:"title"`
}

// MosaicConfig describes a source image split into sub-images. Dir serves
// the sub-image files of a directory as DirLayer and Store serves the
// sub-images of a bbolt database as StoreLayer.
type MosaicConfig struct {
	ID         string `mapstructure:"id"`
	Width      int    `mapstructure:"width"`
	Height     int    `mapstructure:"height"`
	Dir        string `mapstructure:"dir"`
	DirLayer   string `mapstructure:"dir_layer"`
	Store      string `mapstructure:"store"`
	StoreLayer string `mapstructure:"store_layer"`
}

// ServerConfig configures the WMS server command
type ServerConfig struct {
	Addr         string       `mapstructure:"addr"`
	Source       string       `mapstructure:"source"`
	Layer        string       `mapstructure:"layer"`
	MaxImageSize int          `mapstructure:"max_image_size"`
	CacheEntries int          `mapstructure:"cache_entries"`
	Mosaic       MosaicConfig `mapstructure:"mosaic"`
}

type LogConfig struct {
	File string `mapstructure:"file"`
}

// Config holds the complete configuration of the viewer and the server
type Config struct {
	WMS     WMSConfig     `mapstructure:"wms"`
	Map     MapConfig     `mapstructure:"map"`
	Window  WindowConfig  `mapstructure:"window"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Fetch   FetchConfig   `mapstructure:"fetch"`
	Overlay OverlayConfig `mapstructure:"overlay"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Verbose bool          `mapstructure:"verbose"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		WMS: WMSConfig{
			URL:    "http://localhost:8080/wms",
			Title:  "NASA Blue Marble",
			Layer:  "bluemarble_file",
			Format: "image/jpeg",
			Buffer: 1, // keep the halo of tiles around the viewport small
		},
		Map: MapConfig{
			ZoomLevels:  16,
			Projections: []string{proj.CodeLonLat, proj.CodeNorthPole, proj.CodeSouthPole},
		},
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "Basemaps",
		},
		Cache: CacheConfig{
			Entries: 512,
		},
		Fetch: FetchConfig{
			Concurrency: 4,
			Timeout:     15 * time.Second,
			RetryAfter:  30 * time.Second,
			UserAgent:   "basemaps/1.0",
		},
		Overlay: OverlayConfig{
			Title: "Coastlines",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Layer:        "bluemarble_file",
			MaxImageSize: 512,
			CacheEntries: 1024,
			Mosaic: MosaicConfig{
				ID:         "bluemarble",
				Width:      5400,
				Height:     2700,
				DirLayer:   "bluemarble_file",
				StoreLayer: "bluemarble",
			},
		},
	}
}

// SetDefaults registers every default value with v so that environment
// variables and config files can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("wms.url", d.WMS.URL)
	v.SetDefault("wms.title", d.WMS.Title)
	v.SetDefault("wms.layer", d.WMS.Layer)
	v.SetDefault("wms.format", d.WMS.Format)
	v.SetDefault("wms.buffer", d.WMS.Buffer)
	v.SetDefault("map.zoom_levels", d.Map.ZoomLevels)
	v.SetDefault("map.projections", d.Map.Projections)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.entries", d.Cache.Entries)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.retry_after", d.Fetch.RetryAfter)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("overlay.shapefile", d.Overlay.Shapefile)
	v.SetDefault("overlay.title", d.Overlay.Title)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.source", d.Server.Source)
	v.SetDefault("server.layer", d.Server.Layer)
	v.SetDefault("server.max_image_size", d.Server.MaxImageSize)
	v.SetDefault("server.cache_entries", d.Server.CacheEntries)
	v.SetDefault("server.mosaic.id", d.Server.Mosaic.ID)
	v.SetDefault("server.mosaic.width", d.Server.Mosaic.Width)
	v.SetDefault("server.mosaic.height", d.Server.Mosaic.Height)
	v.SetDefault("server.mosaic.dir", d.Server.Mosaic.Dir)
	v.SetDefault("server.mosaic.dir_layer", d.Server.Mosaic.DirLayer)
	v.SetDefault("server.mosaic.store", d.Server.Mosaic.Store)
	v.SetDefault("server.mosaic.store_layer", d.Server.Mosaic.StoreLayer)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("verbose", d.Verbose)
}

// New returns a viper instance with defaults and BASEMAPS_* environment
// variables bound
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("basemaps")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and decodes the merged settings
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the viewer relies on
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.WMS.URL); err != nil {
		return fmt.Errorf("wms.url %q is not a valid URL: %w", c.WMS.URL, err)
	}
	if c.WMS.Layer == "" {
		return fmt.Errorf("wms.layer is required")
	}
	if c.WMS.Buffer < 0 {
		return fmt.Errorf("wms.buffer must not be negative")
	}
	if c.Map.ZoomLevels < 1 {
		return fmt.Errorf("map.zoom_levels must be at least 1")
	}
	if len(c.Map.Projections) == 0 {
		return fmt.Errorf("map.projections must list at least one projection")
	}
	// The map starts in the geographic projection and the selector starts
	// on the first option
	if c.Map.Projections[0] != proj.CodeLonLat {
		return fmt.Errorf("map.projections must start with %s, got %s", proj.CodeLonLat, c.Map.Projections[0])
	}
	if c.Window.Width < 1 || c.Window.Height < 1 {
		return fmt.Errorf("window size must be positive")
	}
	if c.Cache.Entries < 1 {
		return fmt.Errorf("cache.entries must be at least 1")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	return nil
}

// ValidateServer checks the settings of the WMS server command
func (c *Config) ValidateServer() error {
	s := c.Server
	if s.Source == "" && s.Mosaic.Dir == "" && s.Mosaic.Store == "" {
		return fmt.Errorf("server.source, server.mosaic.dir or server.mosaic.store is required")
	}
	layers := map[string]bool{}
	publish := func(enabled bool, key, layer string) error {
		if !enabled {
			return nil
		}
		if layer == "" {
			return fmt.Errorf("%s is required", key)
		}
		if layers[layer] {
			return fmt.Errorf("%s: layer %s is already published", key, layer)
		}
		layers[layer] = true
		return nil
	}
	if err := publish(s.Source != "", "server.layer", s.Layer); err != nil {
		return err
	}
	if err := publish(s.Mosaic.Dir != "", "server.mosaic.dir_layer", s.Mosaic.DirLayer); err != nil {
		return err
	}
	if err := publish(s.Mosaic.Store != "", "server.mosaic.store_layer", s.Mosaic.StoreLayer); err != nil {
		return err
	}
	if (s.Mosaic.Dir != "" || s.Mosaic.Store != "") && (s.Mosaic.ID == "" || s.Mosaic.Width < 1 || s.Mosaic.Height < 1) {
		return fmt.Errorf("server.mosaic needs an id and a positive size")
	}
	if s.MaxImageSize < 1 {
		return fmt.Errorf("server.max_image_size must be at least 1")
	}
	if s.CacheEntries < 1 {
		return fmt.Errorf("server.cache_entries must be at least 1")
	}
	return nil
}
