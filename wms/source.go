package wms

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "github.com/gen2brain/webp"

	"github.com/OpticalFlyer/basemaps/proj"
)

// Source is an image in longitude/latitude covering the whole globe,
// sampled by nearest pixel
type Source struct {
	Name string

	img    image.Image
	width  int
	height int

	// Distance between pixel centres and the centre of the first pixel
	dx, dy         float64
	startX, startY float64
	extent         proj.Extent
}

// NewSource georeferences img as an equirectangular image of the globe
func NewSource(name string, img image.Image) *Source {
	b := img.Bounds()
	extent := proj.LonLatExtent
	s := &Source{
		Name:   name,
		img:    img,
		width:  b.Dx(),
		height: b.Dy(),
		extent: extent,
	}
	s.dx = extent.Width() / float64(s.width)
	s.dy = extent.Height() / float64(s.height)
	s.startX = extent.Left + s.dx/2
	s.startY = extent.Bottom + s.dy/2
	return s
}

// LoadSource decodes a JPEG, PNG or WebP image file into a Source
func LoadSource(name, path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening source image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding source image %s: %w", path, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("source image %s is empty", path)
	}
	return NewSource(name, img), nil
}

// Image returns the georeferenced image
func (s *Source) Image() image.Image {
	return s.img
}

// Size returns the width and height of the source image in pixels
func (s *Source) Size() (int, int) {
	return s.width, s.height
}

// NearestIndices returns the pixel nearest to a longitude/latitude point,
// with (0, 0) the top left pixel. ok is false outside the image.
func (s *Source) NearestIndices(lon, lat float64) (i, j int, ok bool) {
	if math.IsNaN(lon) || math.IsNaN(lat) || !s.extent.Contains(lon, lat) {
		return 0, 0, false
	}
	nx := (lon - s.startX) / s.dx
	ny := (lat - s.startY) / s.dy

	i = max(0, min(s.width-1, int(math.Round(nx))))
	// Rows count down from the top of the image
	j = max(0, min(s.height-1, s.height-1-int(math.Round(ny))))
	return i, j, true
}

// At returns the colour of the pixel nearest to a longitude/latitude point
func (s *Source) At(lon, lat float64) (color.Color, bool) {
	i, j, ok := s.NearestIndices(lon, lat)
	if !ok {
		return nil, false
	}
	b := s.img.Bounds()
	return s.img.At(b.Min.X+i, b.Min.Y+j), true
}
