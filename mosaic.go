package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/logger"
	"github.com/OpticalFlyer/basemaps/tilecache"
	"github.com/OpticalFlyer/basemaps/wms"
)

var mosaicCmd = &cobra.Command{
	Use:   "mosaic <image>",
	Short: "Split a source image into the sub-images served by the mosaic layers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mc := cfg.Server.Mosaic
		f := cmd.Flags()
		if f.Changed("id") {
			mc.ID, _ = f.GetString("id")
		}
		if f.Changed("dir") {
			mc.Dir, _ = f.GetString("dir")
		}
		if f.Changed("store") {
			mc.Store, _ = f.GetString("store")
		}
		if mc.Dir == "" && mc.Store == "" {
			return fmt.Errorf("set --dir or --store")
		}
		log := logger.Named("mosaic")

		src, err := wms.LoadSource(mc.ID, args[0])
		if err != nil {
			return err
		}
		img := src.Image()
		w, h := src.Size()

		var writers []wms.SubImageWriter
		if mc.Dir != "" {
			writers = append(writers, wms.DirTiles{Dir: mc.Dir})
		}
		if mc.Store != "" {
			store, err := tilecache.OpenBolt(mc.Store)
			if err != nil {
				return err
			}
			defer store.Close()
			writers = append(writers, wms.StoreTiles{Store: store})
		}

		for _, wr := range writers {
			n, err := wms.SplitMosaic(cmd.Context(), mc.ID, img, wr)
			if err != nil {
				return err
			}
			log.Info("mosaic written",
				zap.String("image", mc.ID),
				zap.String("size", fmt.Sprintf("%dx%d", w, h)),
				zap.String("sub_images", humanize.Comma(int64(n))),
				zap.String("pixels", humanize.IBytes(uint64(4*w*h))))
		}
		if w != mc.Width || h != mc.Height {
			log.Warn("serve the mosaic with its image size",
				zap.Int("server.mosaic.width", w),
				zap.Int("server.mosaic.height", h))
		}
		return nil
	},
}

// The flags override server.mosaic.* for this command only; the keys stay
// bound to the serve flags.
func init() {
	defaults := config.DefaultConfig()

	f := mosaicCmd.Flags()
	f.String("id", defaults.Server.Mosaic.ID, "Image name the sub-images are stored under")
	f.String("dir", "", "Directory to write sub-image files to")
	f.String("store", "", "bbolt database to write sub-images to")

	rootCmd.AddCommand(mosaicCmd)
}
