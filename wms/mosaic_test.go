package wms

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilecache"
)

// gradient returns an opaque image whose colour encodes the pixel position
func gradient(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x / 256), A: 255})
		}
	}
	return img
}

func TestSubImageKey(t *testing.T) {
	m, err := NewMosaic("bluemarble", 1200, 700, DirTiles{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	assert.Equal(t, "bluemarble_1200_700_0_0_500_500", m.SubImageKey(0, 0).String())
	assert.Equal(t, "bluemarble_1200_700_1000_500_200_200", m.SubImageKey(2, 1).String())

	_, err = NewMosaic("bluemarble", 0, 700, DirTiles{}, nil)
	assert.Error(t, err)
}

func TestMosaicFromDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	img := gradient(1200, 700)

	n, err := SplitMosaic(ctx, "bluemarble", img, DirTiles{Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	info, err := os.Stat(filepath.Join(dir, "bluemarble_1200_700_1000_500_200_200.tile"))
	require.NoError(t, err)
	assert.Equal(t, int64(4*200*200), info.Size())

	m, err := NewMosaic("bluemarble", 1200, 700, DirTiles{Dir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), m.Bounds())
	for _, p := range []image.Point{{0, 0}, {499, 0}, {500, 0}, {501, 499}, {700, 500}, {1199, 699}} {
		assert.Equal(t, img.NRGBAAt(p.X, p.Y), m.At(p.X, p.Y), "pixel %v", p)
	}
	assert.Equal(t, color.NRGBA{}, m.At(1200, 0))
}

func TestMosaicMissingSubImages(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	_, err := SplitMosaic(ctx, "bluemarble", gradient(600, 300), DirTiles{Dir: dir})
	require.NoError(t, err)

	m, err := NewMosaic("bluemarble", 600, 300, DirTiles{Dir: dir}, nil)
	require.NoError(t, err)

	// Truncate the second sub-image
	require.NoError(t, os.WriteFile(filepath.Join(dir, m.SubImageKey(1, 0).String()+".tile"), []byte{1, 2, 3}, 0o644))
	assert.Equal(t, color.NRGBA{R: 10, G: 20, A: 255}, m.At(10, 20))
	assert.Equal(t, color.Black, m.At(510, 20), "unreadable sub-image is black")

	other, err := NewMosaic("landsat", 600, 300, DirTiles{Dir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, color.Black, other.At(10, 20), "missing sub-image is black")
}

func TestMosaicFromStore(t *testing.T) {
	ctx := context.Background()
	store, err := tilecache.NewMemory(8)
	require.NoError(t, err)
	img := gradient(600, 300)

	_, err = SplitMosaic(ctx, "bluemarble", img, StoreTiles{Store: store})
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())

	m, err := NewMosaic("bluemarble", 600, 300, StoreTiles{Store: store}, nil)
	require.NoError(t, err)
	assert.Equal(t, img.NRGBAAt(550, 299), m.At(550, 299))
	assert.Equal(t, img.NRGBAAt(3, 4), m.At(3, 4))
}

func TestRenderMosaicMatchesImage(t *testing.T) {
	ctx := context.Background()
	img := gradient(1000, 500)
	m, err := NewMosaic("bluemarble", 1000, 500, mosaicDir(t, img), nil)
	require.NoError(t, err)

	lonLat, err := proj.ForCode(proj.CodeLonLat)
	require.NoError(t, err)

	for _, tc := range []struct {
		p    proj.Projection
		bbox proj.Extent
	}{
		{lonLat, proj.LonLatExtent},
		{proj.NorthPolarStereographic(), proj.PolarWindow},
	} {
		p, bbox := tc.p, tc.bbox
		want, err := Render(ctx, NewSource("image", img), p, bbox, 32, 32)
		require.NoError(t, err)
		got, err := Render(ctx, NewSource("mosaic", m), p, bbox, 32, 32)
		require.NoError(t, err)
		assert.Equal(t, want.Pix, got.Pix, p.Code())
	}
}

func TestServerPublishesMosaic(t *testing.T) {
	img := gradient(1000, 500)
	m, err := NewMosaic("bluemarble", 1000, 500, mosaicDir(t, img), nil)
	require.NoError(t, err)

	cfg := config.DefaultConfig().Server
	_, err = NewServer(cfg, nil, NewSource("bluemarble", img), NewSource("bluemarble", m))
	assert.Error(t, err, "layer names are unique")

	s, err := NewServer(cfg, nil, NewSource("bluemarble_file", img), NewSource("bluemarble", m))
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, layer := range []string{"bluemarble_file", "bluemarble"} {
		resp := getMap(t, ts, getMapQuery(map[string]string{"LAYERS": layer, "FORMAT": FormatPNG}))
		assert.Equal(t, http.StatusOK, resp.StatusCode, layer)
		assert.Equal(t, FormatPNG, resp.Header.Get("Content-Type"), layer)
	}
}

func mosaicDir(t *testing.T, img image.Image) DirTiles {
	t.Helper()
	tiles := DirTiles{Dir: t.TempDir()}
	_, err := SplitMosaic(context.Background(), "bluemarble", img, tiles)
	require.NoError(t, err)
	return tiles
}
