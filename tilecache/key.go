package tilecache

import (
	"context"
	"fmt"

	"github.com/OpticalFlyer/basemaps/proj"
)

// Key uniquely identifies a rendered map image
type Key struct {
	Layer  string
	Format string
	CRS    string
	BBox   proj.Extent
	Width  int
	Height int
}

// NewKey creates a Key. EPSG:4326 and CRS:84 describe the same lon/lat
// images and share one key.
func NewKey(layer, format, crs string, bbox proj.Extent, width, height int) Key {
	if crs == proj.CodeLonLat {
		crs = proj.CodeCRS84
	}
	return Key{
		Layer:  layer,
		Format: format,
		CRS:    crs,
		BBox:   bbox,
		Width:  width,
		Height: height,
	}
}

// WithFormat returns a copy of the key for another image format
func (k Key) WithFormat(format string) Key {
	k.Format = format
	return k
}

// String returns the storage form of the key
func (k Key) String() string {
	return fmt.Sprintf("%s_%s_%s_%s_%dx%d", k.Layer, k.Format, k.CRS, k.BBox, k.Width, k.Height)
}

// Store holds encoded image bytes by key
type Store interface {
	// Get returns the bytes for key and whether they were found.
	Get(ctx context.Context, key Key) ([]byte, bool, error)

	// Put stores the bytes for key, replacing any previous value.
	Put(ctx context.Context, key Key, data []byte) error
}
