package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/logger"
	"github.com/OpticalFlyer/basemaps/tilecache"
	"github.com/OpticalFlyer/basemaps/wms"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the WMS server rendering the source images in every supported projection",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateServer(); err != nil {
			return err
		}
		log := logger.Named("wms")

		sources, closeSources, err := loadSources(cfg.Server, log)
		if err != nil {
			return err
		}
		defer closeSources()

		srv, err := wms.NewServer(cfg.Server, log, sources...)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

// loadSources opens every configured layer: the single source image and
// the directory and bbolt backed mosaics. The returned func closes the
// mosaic store.
func loadSources(sc config.ServerConfig, log *zap.Logger) ([]*wms.Source, func(), error) {
	var (
		sources []*wms.Source
		closers []func() error
	)
	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn("closing mosaic store", zap.Error(err))
			}
		}
	}

	if sc.Source != "" {
		src, err := wms.LoadSource(sc.Layer, sc.Source)
		if err != nil {
			return nil, nil, err
		}
		w, h := src.Size()
		log.Info("source image loaded",
			zap.String("layer", src.Name),
			zap.String("path", sc.Source),
			zap.Int("width", w),
			zap.Int("height", h))
		sources = append(sources, src)
	}

	mc := sc.Mosaic
	addMosaic := func(layer string, r wms.SubImageReader, from string) error {
		m, err := wms.NewMosaic(mc.ID, mc.Width, mc.Height, r, log)
		if err != nil {
			return err
		}
		log.Info("mosaic opened",
			zap.String("layer", layer),
			zap.String("image", mc.ID),
			zap.String("from", from),
			zap.Int("width", mc.Width),
			zap.Int("height", mc.Height))
		sources = append(sources, wms.NewSource(layer, m))
		return nil
	}

	if mc.Dir != "" {
		if err := addMosaic(mc.DirLayer, wms.DirTiles{Dir: mc.Dir}, mc.Dir); err != nil {
			return nil, nil, err
		}
	}
	if mc.Store != "" {
		store, err := tilecache.OpenBolt(mc.Store)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		if err := addMosaic(mc.StoreLayer, wms.StoreTiles{Store: store}, mc.Store); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	if len(sources) == 0 {
		return nil, nil, errors.New("no layers to serve")
	}
	return sources, closeAll, nil
}

func init() {
	defaults := config.DefaultConfig()

	f := serveCmd.Flags()
	f.String("addr", defaults.Server.Addr, "Address to listen on")
	f.String("source", "", "Equirectangular source image covering the globe (JPEG, PNG or WebP)")
	f.String("layer", defaults.Server.Layer, "Layer name the source image is published under")
	f.Int("max-image-size", defaults.Server.MaxImageSize, "Largest width or height of a GetMap image")
	f.String("mosaic-dir", "", "Directory of mosaic sub-image files")
	f.String("mosaic-store", "", "bbolt database of mosaic sub-images")
	_ = settings.BindPFlag("server.addr", f.Lookup("addr"))
	_ = settings.BindPFlag("server.source", f.Lookup("source"))
	_ = settings.BindPFlag("server.layer", f.Lookup("layer"))
	_ = settings.BindPFlag("server.max_image_size", f.Lookup("max-image-size"))
	_ = settings.BindPFlag("server.mosaic.dir", f.Lookup("mosaic-dir"))
	_ = settings.BindPFlag("server.mosaic.store", f.Lookup("mosaic-store"))

	rootCmd.AddCommand(serveCmd)
}
