package tilemap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilecache"
)

func TestWMSLayerParams(t *testing.T) {
	l := NewWMSLayer("NASA Blue Marble", "http://localhost:8080/wms",
		Params{"layers": "bluemarble_file", "format": "image/png"},
		LayerOptions{Buffer: 1}, nil, nil)

	assert.Equal(t, "NASA Blue Marble", l.Name())
	assert.True(t, l.IsBaseLayer())
	assert.True(t, l.Visible())
	assert.Equal(t, 1, l.Options().Buffer)

	p := l.Params()
	assert.Equal(t, "bluemarble_file", p["LAYERS"])
	assert.Equal(t, "image/png", p["FORMAT"])
	assert.Equal(t, "WMS", p["SERVICE"])
	assert.Equal(t, "GetMap", p["REQUEST"])
	assert.NotContains(t, p, "layers")

	l.MergeNewParams(Params{"srs": proj.CodeNorthPole})
	assert.Equal(t, proj.CodeNorthPole, l.Params()["SRS"])
	assert.Equal(t, "bluemarble_file", l.Params()["LAYERS"], "merge keeps other params")

	p["LAYERS"] = "changed"
	assert.Equal(t, "bluemarble_file", l.Params()["LAYERS"], "params are returned by copy")
}

func TestWMSLayerBoundsLoadedTiles(t *testing.T) {
	l := NewWMSLayer("base", "http://localhost:8080/wms", nil, LayerOptions{}, nil, nil)
	l.tileCache = newTileCache(2)

	for x := 0; x < 3; x++ {
		l.tileCache.Add(TileKey{Zoom: 4, X: x}, nil)
	}
	assert.Equal(t, 2, l.LoadedTiles())
	assert.False(t, l.tileCache.Contains(TileKey{Zoom: 4, X: 0}), "least recently used tile is evicted")

	l.MergeNewParams(Params{"format": "image/png"})
	assert.Equal(t, 0, l.LoadedTiles())
}

func TestWMSLayerAddOptions(t *testing.T) {
	l := NewWMSLayer("base", "http://localhost:8080/wms", nil, LayerOptions{Buffer: 2}, nil, nil)
	l.tileCache.Add(TileKey{Zoom: 0}, nil)
	gen := l.generation

	north := proj.NorthPolarStereographic()
	l.AddOptions(LayerOptions{
		Projection:    north,
		MaxExtent:     proj.PolarWindow,
		MaxResolution: proj.PolarMaxResolution,
		Resolutions:   proj.ResolutionLadder(proj.PolarMaxResolution, 16),
		Units:         proj.Meters,
	})

	o := l.Options()
	assert.Equal(t, proj.CodeNorthPole, o.Projection.Code())
	assert.Equal(t, proj.PolarWindow, o.MaxExtent)
	assert.Equal(t, proj.Meters, o.Units)
	assert.Len(t, o.Resolutions, 16)
	assert.Equal(t, 2, o.Buffer, "unset fields are kept")

	assert.Equal(t, 0, l.LoadedTiles(), "tiles of the old grid are dropped")
	assert.Equal(t, gen+1, l.generation)
}

func TestWMSLayerGetMapURL(t *testing.T) {
	l := NewWMSLayer("base", "http://localhost:8080/wms?map=bluemarble",
		Params{"LAYERS": "bluemarble_file"}, LayerOptions{}, nil, nil)

	raw, err := l.GetMapURL(proj.LonLatExtent, 256, 128)
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/wms", u.Path)

	q := u.Query()
	assert.Equal(t, "bluemarble", q.Get("map"))
	assert.Equal(t, "GetMap", q.Get("REQUEST"))
	assert.Equal(t, "1.1.1", q.Get("VERSION"))
	assert.Equal(t, "bluemarble_file", q.Get("LAYERS"))
	assert.Equal(t, "image/jpeg", q.Get("FORMAT"))
	assert.Equal(t, proj.CodeLonLat, q.Get("SRS"))
	assert.Equal(t, "-180,-90,180,90", q.Get("BBOX"))
	assert.Equal(t, "256", q.Get("WIDTH"))
	assert.Equal(t, "128", q.Get("HEIGHT"))

	// The layer projection is used until SRS is set explicitly
	l.AddOptions(LayerOptions{Projection: proj.SouthPolarStereographic()})
	raw, _ = l.GetMapURL(proj.PolarWindow, 256, 256)
	u, _ = url.Parse(raw)
	assert.Equal(t, proj.CodeSouthPole, u.Query().Get("SRS"))

	l.MergeNewParams(Params{"srs": proj.CodeNorthPole})
	raw, _ = l.GetMapURL(proj.PolarWindow, 256, 256)
	u, _ = url.Parse(raw)
	assert.Equal(t, proj.CodeNorthPole, u.Query().Get("SRS"))
	assert.Equal(t, "-4350000,-4350000,8350000,8350000", u.Query().Get("BBOX"))

	bad := NewWMSLayer("bad", "http://[::1", nil, LayerOptions{}, nil, nil)
	_, err = bad.GetMapURL(proj.LonLatExtent, 1, 1)
	assert.Error(t, err)
}

func testKey(bbox proj.Extent) tilecache.Key {
	return tilecache.NewKey("bluemarble_file", "image/png", proj.CodeLonLat, bbox, TileSize, TileSize)
}

func TestFetcherCachesTiles(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, "basemaps-test", r.UserAgent())
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("tile"))
	}))
	defer srv.Close()

	store, err := tilecache.NewMemory(16)
	require.NoError(t, err)
	f := NewFetcher(FetcherConfig{Store: store, UserAgent: "basemaps-test", Timeout: time.Second})
	defer f.Close()

	ctx := context.Background()
	key := testKey(proj.LonLatExtent)
	data, err := f.Fetch(ctx, srv.URL+"/wms?BBOX=a", key)
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)

	data, err = f.Fetch(ctx, srv.URL+"/wms?BBOX=a", key)
	require.NoError(t, err)
	assert.Equal(t, []byte("tile"), data)
	assert.Equal(t, int32(1), requests.Load(), "second fetch is served from the store")
	assert.Equal(t, 1, store.Len())
}

func TestFetcherRemembersFailures(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{RetryAfter: time.Minute})
	defer f.Close()

	ctx := context.Background()
	_, err := f.Fetch(ctx, srv.URL, testKey(proj.LonLatExtent))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	_, err = f.Fetch(ctx, srv.URL, testKey(proj.LonLatExtent))
	assert.ErrorIs(t, err, ErrRecentlyFailed)
	assert.Equal(t, int32(1), requests.Load())
}

func TestFetcherCancelled(t *testing.T) {
	f := NewFetcher(FetcherConfig{Concurrency: 1})
	defer f.Close()

	// Hold the only slot so the next fetch has to wait
	require.NoError(t, f.sem.Acquire(context.Background(), 1))
	defer f.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, "http://localhost/wms", testKey(proj.LonLatExtent))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.failed.Has("http://localhost/wms"), "cancellation is not a failure")
}

func TestWMSLayerLoadTile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	}))
	defer srv.Close()

	f := NewFetcher(FetcherConfig{})
	defer f.Close()
	l := NewWMSLayer("base", srv.URL, nil, LayerOptions{}, f, nil)
	defer l.Close()

	_, err := l.loadTile(context.Background(), srv.URL, testKey(proj.LonLatExtent))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding image")

	none := NewWMSLayer("none", srv.URL, nil, LayerOptions{}, nil, nil)
	_, err = none.loadTile(context.Background(), srv.URL, testKey(proj.LonLatExtent))
	assert.Error(t, err)
}

func TestFetcherRejectsServiceExceptions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.ogc.se_xml")
		_, _ = w.Write([]byte("<ServiceExceptionReport/>"))
	}))
	defer srv.Close()

	store, err := tilecache.NewMemory(4)
	require.NoError(t, err)
	f := NewFetcher(FetcherConfig{Store: store})
	defer f.Close()

	_, err = f.Fetch(context.Background(), srv.URL+"/wms", testKey(proj.LonLatExtent))
	assert.ErrorContains(t, err, "service exception")
	assert.Equal(t, 0, store.Len())
}
