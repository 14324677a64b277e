package wms

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/OpticalFlyer/basemaps/proj"
)

// Render reprojects src into a width x height image covering bbox in the
// given projection. Pixels with no source data are opaque black.
func Render(ctx context.Context, src *Source, p proj.Projection, bbox proj.Extent, width, height int) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	dx := bbox.Width() / float64(width)
	dy := bbox.Height() / float64(height)

	bands := min(height, runtime.GOMAXPROCS(0))
	rowsPerBand := (height + bands - 1) / bands

	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < height; start += rowsPerBand {
		end := min(height, start+rowsPerBand)
		g.Go(func() error {
			for j := start; j < end; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				// Image rows run from the top of the bounding box down
				y := bbox.Top - (float64(j)+0.5)*dy
				for i := 0; i < width; i++ {
					x := bbox.Left + (float64(i)+0.5)*dx
					lon, lat := p.ToLonLat(x, y)
					if c, ok := src.At(lon, lat); ok {
						img.Set(i, j, c)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return img, nil
}
