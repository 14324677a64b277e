package wms

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilecache"
)

const (
	// SubImageSize is the largest width and height of a mosaic sub-image.
	// A 500x500 sub-image is just under 1 MB of pixels.
	SubImageSize = 500

	// FormatARGB is the format of raw sub-image pixels: 4 bytes per pixel,
	// alpha first, rows from the top
	FormatARGB = "image/x-argb"

	// subImagesInMemory bounds the decoded sub-images a Mosaic keeps
	subImagesInMemory = 64
)

// SubImageKey identifies one sub-image of a mosaic by the size of the whole
// image and the pixel rectangle it covers
type SubImageKey struct {
	Image         string
	Width, Height int
	X, Y          int
	W, H          int
}

// String returns the name the sub-image is stored under
func (k SubImageKey) String() string {
	return fmt.Sprintf("%s_%d_%d_%d_%d_%d_%d", k.Image, k.Width, k.Height, k.X, k.Y, k.W, k.H)
}

// SubImageReader reads the raw ARGB pixels of a sub-image. A missing
// sub-image is returned as nil with no error.
type SubImageReader interface {
	ReadSubImage(ctx context.Context, key SubImageKey) ([]byte, error)
}

// SubImageWriter stores the raw ARGB pixels of a sub-image
type SubImageWriter interface {
	WriteSubImage(ctx context.Context, key SubImageKey, pix []byte) error
}

// DirTiles keeps sub-images as <key>.tile files in a directory
type DirTiles struct {
	Dir string
}

func (d DirTiles) path(key SubImageKey) string {
	return filepath.Join(d.Dir, key.String()+".tile")
}

func (d DirTiles) ReadSubImage(ctx context.Context, key SubImageKey) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pix, err := os.ReadFile(d.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return pix, err
}

func (d DirTiles) WriteSubImage(ctx context.Context, key SubImageKey, pix []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(d.path(key), pix, 0o644)
}

// StoreTiles keeps sub-images in a tile cache store such as tilecache.Bolt
type StoreTiles struct {
	Store tilecache.Store
}

func storeKey(key SubImageKey) tilecache.Key {
	return tilecache.NewKey(key.String(), FormatARGB, "", proj.Extent{}, key.W, key.H)
}

func (s StoreTiles) ReadSubImage(ctx context.Context, key SubImageKey) ([]byte, error) {
	pix, ok, err := s.Store.Get(ctx, storeKey(key))
	if err != nil || !ok {
		return nil, err
	}
	return pix, nil
}

func (s StoreTiles) WriteSubImage(ctx context.Context, key SubImageKey, pix []byte) error {
	return s.Store.Put(ctx, storeKey(key), pix)
}

type subImage struct {
	w   int
	pix []byte // nil when the sub-image could not be read
}

// Mosaic is an image split into sub-images of at most SubImageSize pixels
// square, read on demand. Pixels of sub-images that are missing or
// unreadable are opaque black.
type Mosaic struct {
	id            string
	width, height int
	reader        SubImageReader
	log           *zap.Logger

	cols    int
	loaded  *lru.Cache[int, *subImage]
	loading singleflight.Group
}

var _ image.Image = (*Mosaic)(nil)

// NewMosaic creates a width x height mosaic of the image id whose
// sub-images are read from r
func NewMosaic(id string, width, height int, r SubImageReader, log *zap.Logger) (*Mosaic, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("mosaic %s: invalid size %dx%d", id, width, height)
	}
	if log == nil {
		log = zap.NewNop()
	}
	loaded, err := lru.New[int, *subImage](subImagesInMemory)
	if err != nil {
		return nil, err
	}
	return &Mosaic{
		id:     id,
		width:  width,
		height: height,
		reader: r,
		log:    log.With(zap.String("mosaic", id)),
		cols:   (width + SubImageSize - 1) / SubImageSize,
		loaded: loaded,
	}, nil
}

// SubImageKey returns the key of the sub-image in column i, row j
func (m *Mosaic) SubImageKey(i, j int) SubImageKey {
	return subImageKey(m.id, m.width, m.height, i, j)
}

func subImageKey(id string, width, height, i, j int) SubImageKey {
	x, y := i*SubImageSize, j*SubImageSize
	return SubImageKey{
		Image:  id,
		Width:  width,
		Height: height,
		X:      x,
		Y:      y,
		W:      min(SubImageSize, width-x),
		H:      min(SubImageSize, height-y),
	}
}

func (m *Mosaic) ColorModel() color.Model { return color.NRGBAModel }

func (m *Mosaic) Bounds() image.Rectangle { return image.Rect(0, 0, m.width, m.height) }

func (m *Mosaic) At(x, y int) color.Color {
	if !image.Pt(x, y).In(m.Bounds()) {
		return color.NRGBA{}
	}
	sub := m.subImage(x/SubImageSize, y/SubImageSize)
	if sub.pix == nil {
		return color.Black
	}
	off := 4 * ((y%SubImageSize)*sub.w + x%SubImageSize)
	p := sub.pix[off : off+4]
	return color.NRGBA{R: p[1], G: p[2], B: p[3], A: p[0]}
}

func (m *Mosaic) subImage(i, j int) *subImage {
	idx := j*m.cols + i
	if sub, ok := m.loaded.Get(idx); ok {
		return sub
	}
	v, _, _ := m.loading.Do(strconv.Itoa(idx), func() (any, error) {
		sub := m.read(i, j)
		m.loaded.Add(idx, sub)
		return sub, nil
	})
	return v.(*subImage)
}

func (m *Mosaic) read(i, j int) *subImage {
	key := m.SubImageKey(i, j)
	sub := &subImage{w: key.W}
	pix, err := m.reader.ReadSubImage(context.Background(), key)
	switch {
	case err != nil:
		m.log.Warn("reading sub-image", zap.Stringer("key", key), zap.Error(err))
	case pix == nil:
		m.log.Debug("sub-image not found", zap.Stringer("key", key))
	case len(pix) != 4*key.W*key.H:
		m.log.Warn("unexpected sub-image length",
			zap.Stringer("key", key),
			zap.Int("length", len(pix)),
			zap.Int("expected", 4*key.W*key.H))
	default:
		sub.pix = pix
	}
	return sub
}

// SplitMosaic cuts img into the sub-images of a mosaic named id and writes
// them to w. It returns the number of sub-images written.
func SplitMosaic(ctx context.Context, id string, img image.Image, w SubImageWriter) (int, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if width < 1 || height < 1 {
		return 0, fmt.Errorf("mosaic %s: image is empty", id)
	}
	cols := (width + SubImageSize - 1) / SubImageSize
	rows := (height + SubImageSize - 1) / SubImageSize

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			key := subImageKey(id, width, height, i, j)
			g.Go(func() error {
				pix := make([]byte, 0, 4*key.W*key.H)
				for y := key.Y; y < key.Y+key.H; y++ {
					for x := key.X; x < key.X+key.W; x++ {
						c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
						pix = append(pix, c.A, c.R, c.G, c.B)
					}
				}
				if err := w.WriteSubImage(ctx, key, pix); err != nil {
					return fmt.Errorf("writing sub-image %s: %w", key, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return cols * rows, nil
}
