package tilemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strconv"
	"sync"

	_ "github.com/gen2brain/webp"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilecache"
)

var _ BaseLayer = (*WMSLayer)(nil)

// MaxLoadedTiles bounds the decoded tiles a WMSLayer keeps on the GPU
const MaxLoadedTiles = 512

// WMSLayer is a base layer whose tiles are GetMap requests against a WMS
// endpoint
type WMSLayer struct {
	layerState

	url     string
	params  Params
	options LayerOptions
	fetcher *Fetcher
	log     *zap.Logger

	// Tile management
	tileCache       *lru.Cache[TileKey, *ebiten.Image]
	cacheMu         sync.RWMutex
	placeholderTile *ebiten.Image
	fetching        map[TileKey]bool
	fetchingMu      sync.Mutex

	// generation is bumped whenever options or params change so that
	// in-flight fetches for the old grid are discarded.
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWMSLayer creates a base layer named name that requests images from the
// WMS at serviceURL
func NewWMSLayer(name, serviceURL string, params Params, opts LayerOptions, fetcher *Fetcher, log *zap.Logger) *WMSLayer {
	if log == nil {
		log = zap.NewNop()
	}
	p := Params{
		"SERVICE": "WMS",
		"VERSION": "1.1.1",
		"REQUEST": "GetMap",
		"STYLES":  "",
		"FORMAT":  "image/jpeg",
	}
	for k, v := range NewParams(params) {
		p[k] = v
	}

	l := &WMSLayer{
		layerState: layerState{name: name, base: true, visible: true},
		url:        serviceURL,
		params:     p,
		options:    LayerOptions{},
		fetcher:    fetcher,
		log:        log.With(zap.String("layer", name)),
		tileCache:  newTileCache(MaxLoadedTiles),
		fetching:   make(map[TileKey]bool),
	}
	l.options.merge(opts)
	l.ctx, l.cancel = context.WithCancel(context.Background())
	return l
}

// Options returns a copy of the layer's projection-dependent state
func (l *WMSLayer) Options() LayerOptions {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	o := l.options
	o.Resolutions = append([]float64(nil), l.options.Resolutions...)
	return o
}

// AddOptions merges o into the layer's options and drops every tile of the
// previous grid
func (l *WMSLayer) AddOptions(o LayerOptions) {
	l.cacheMu.Lock()
	l.options.merge(o)
	l.cacheMu.Unlock()
	l.reset()
}

// Params returns a copy of the request parameters
func (l *WMSLayer) Params() Params {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return l.params.Clone()
}

// MergeNewParams merges p into the request parameters, upper-casing its
// keys, and drops every tile fetched with the previous parameters
func (l *WMSLayer) MergeNewParams(p Params) {
	l.cacheMu.Lock()
	for k, v := range NewParams(p) {
		l.params[k] = v
	}
	l.cacheMu.Unlock()
	l.reset()
}

// reset cancels outstanding fetches and empties the tile cache
func (l *WMSLayer) reset() {
	l.cacheMu.Lock()
	l.cancel()
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.generation++
	l.tileCache.Purge()
	l.cacheMu.Unlock()

	l.fetchingMu.Lock()
	l.fetching = make(map[TileKey]bool)
	l.fetchingMu.Unlock()
}

// newTileCache returns an LRU of decoded tiles that frees the GPU memory of
// evicted tiles
func newTileCache(size int) *lru.Cache[TileKey, *ebiten.Image] {
	cache, err := lru.NewWithEvict(size, func(_ TileKey, img *ebiten.Image) {
		if img != nil {
			img.Deallocate()
		}
	})
	if err != nil {
		panic(err)
	}
	return cache
}

// srs returns the coordinate reference system the layer requests images in
func (l *WMSLayer) srs() string {
	if v, ok := l.params["SRS"]; ok && v != "" {
		return v
	}
	if l.options.Projection != nil {
		return l.options.Projection.Code()
	}
	if l.m != nil {
		return l.m.Projection()
	}
	return proj.CodeLonLat
}

// GetMapURL returns the GetMap request for an image of width×height pixels
// covering bounds
func (l *WMSLayer) GetMapURL(bounds proj.Extent, width, height int) (string, error) {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return l.getMapURL(bounds, width, height)
}

func (l *WMSLayer) getMapURL(bounds proj.Extent, width, height int) (string, error) {
	u, err := url.Parse(l.url)
	if err != nil {
		return "", fmt.Errorf("invalid WMS url %q: %w", l.url, err)
	}

	q := u.Query()
	for k, v := range l.params {
		q.Set(k, v)
	}
	q.Set("SRS", l.srs())
	q.Set("BBOX", bounds.String())
	q.Set("WIDTH", strconv.Itoa(width))
	q.Set("HEIGHT", strconv.Itoa(height))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// extent returns the grid extent of the layer, falling back to the map's
func (l *WMSLayer) extent(m *Map) proj.Extent {
	if !l.options.MaxExtent.IsEmpty() {
		return l.options.MaxExtent
	}
	return m.Options().MaxExtent
}

// Draw renders the visible tiles to the screen
func (l *WMSLayer) Draw(screen *ebiten.Image, m *Map, debugMode bool) {
	if l.placeholderTile == nil {
		l.placeholderTile = ebiten.NewImage(TileSize, TileSize)
		l.placeholderTile.Fill(color.Black)
	}

	l.cacheMu.RLock()
	extent := l.extent(m)
	buffer := l.options.Buffer
	l.cacheMu.RUnlock()

	tileRange, _, _ := m.TileRange(extent, buffer)
	res := m.Resolution()

	l.cacheMu.RLock()
	l.fetchingMu.Lock()
	defer l.fetchingMu.Unlock()
	defer l.cacheMu.RUnlock()

	// Debug colors
	redColor := color.RGBA{R: 255, A: 255}
	strokeWidth := float32(1.0)

	// Iterate through the required tile grid
	for ty := tileRange.MinY; ty <= tileRange.MaxY; ty++ {
		for tx := tileRange.MinX; tx <= tileRange.MaxX; tx++ {
			key := TileKey{Zoom: m.Zoom, X: tx, Y: ty}
			tileImg, found := l.tileCache.Get(key)
			isFetching := l.fetching[key]

			bounds := proj.TileBounds(tx, ty, extent, res)
			drawX, drawY := m.MapToScreen(bounds.Left, bounds.Top)
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Translate(drawX, drawY)

			if !found && !isFetching {
				if tileURL, err := l.getMapURL(bounds, TileSize, TileSize); err == nil {
					l.fetching[key] = true
					cacheKey := tilecache.NewKey(l.params["LAYERS"], l.params["FORMAT"], l.srs(), bounds, TileSize, TileSize)
					go l.fetchAndCacheTile(l.ctx, l.generation, key, tileURL, cacheKey)
				}
			}

			if found && tileImg != nil {
				screen.DrawImage(tileImg, op)
				if debugMode {
					// Draw blue tint and grid for loaded tiles
					vector.DrawFilledRect(screen, float32(drawX), float32(drawY),
						float32(TileSize), float32(TileSize),
						color.RGBA{B: 100, A: 100}, false)
					vector.StrokeRect(screen, float32(drawX), float32(drawY),
						float32(TileSize), float32(TileSize),
						strokeWidth, redColor, false)
					ebitenutil.DebugPrintAt(screen,
						fmt.Sprintf("%d/%d/%d", m.Zoom, tx, ty),
						int(drawX)+2, int(drawY)+2)
				}
			} else {
				screen.DrawImage(l.placeholderTile, op)
				if debugMode {
					// Draw yellow or red tint for loading/needed tiles
					fillColor := color.RGBA{R: 50, A: 50}
					status := "Needed"
					if isFetching {
						fillColor = color.RGBA{R: 100, G: 100, B: 0, A: 50}
						status = "Fetching"
					}
					vector.DrawFilledRect(screen, float32(drawX), float32(drawY),
						float32(TileSize), float32(TileSize),
						fillColor, false)
					vector.StrokeRect(screen, float32(drawX), float32(drawY),
						float32(TileSize), float32(TileSize),
						strokeWidth, redColor, false)
					ebitenutil.DebugPrintAt(screen,
						fmt.Sprintf("%s: %d/%d/%d", status, m.Zoom, tx, ty),
						int(drawX)+2, int(drawY)+2)
				}
			}
		}
	}
}

// fetchAndCacheTile fetches and caches a single tile
func (l *WMSLayer) fetchAndCacheTile(ctx context.Context, generation uint64, key TileKey, tileURL string, cacheKey tilecache.Key) {
	defer func() {
		current := l.currentGeneration()
		l.fetchingMu.Lock()
		if current == generation {
			delete(l.fetching, key)
		}
		l.fetchingMu.Unlock()
	}()

	img, err := l.loadTile(ctx, tileURL, cacheKey)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
		case errors.Is(err, ErrRecentlyFailed):
			l.log.Debug("skipping tile", zap.String("url", tileURL))
		default:
			l.log.Warn("error fetching tile",
				zap.Int("zoom", key.Zoom), zap.Int("x", key.X), zap.Int("y", key.Y),
				zap.Error(err))
		}
		return
	}

	tileImg := ebiten.NewImageFromImage(img)

	l.cacheMu.Lock()
	if l.generation == generation {
		l.tileCache.Add(key, tileImg)
	}
	l.cacheMu.Unlock()
}

// loadTile fetches and decodes the image at tileURL
func (l *WMSLayer) loadTile(ctx context.Context, tileURL string, cacheKey tilecache.Key) (image.Image, error) {
	if l.fetcher == nil {
		return nil, fmt.Errorf("layer %s has no fetcher", l.name)
	}
	data, err := l.fetcher.Fetch(ctx, tileURL, cacheKey)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s failed: %w", tileURL, err)
	}
	return img, nil
}

func (l *WMSLayer) currentGeneration() uint64 {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return l.generation
}

// LoadedTiles returns the number of decoded tiles held by the layer
func (l *WMSLayer) LoadedTiles() int {
	l.cacheMu.RLock()
	defer l.cacheMu.RUnlock()
	return l.tileCache.Len()
}

// Close cancels outstanding fetches
func (l *WMSLayer) Close() {
	l.cacheMu.Lock()
	l.cancel()
	l.cacheMu.Unlock()
}
