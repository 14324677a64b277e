package tilemap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/OpticalFlyer/basemaps/tilecache"
)

// ErrRecentlyFailed is returned for tiles whose last fetch failed within the
// retry window
var ErrRecentlyFailed = errors.New("tile fetch failed recently")

// FetcherConfig configures a Fetcher
type FetcherConfig struct {
	Client      *http.Client
	Store       tilecache.Store
	Concurrency int
	Timeout     time.Duration
	RetryAfter  time.Duration
	UserAgent   string
	Logger      *zap.Logger
}

// Fetcher downloads map images with bounded concurrency, caching the
// encoded bytes in a tile store and remembering failed requests for a while
type Fetcher struct {
	client    *http.Client
	store     tilecache.Store
	sem       *semaphore.Weighted
	failed    *ttlcache.Cache[string, error]
	timeout   time.Duration
	userAgent string
	log       *zap.Logger
	closeOnce sync.Once
}

// NewFetcher creates a Fetcher. Call Close to stop its background cleanup.
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	failed := ttlcache.New[string, error](
		ttlcache.WithTTL[string, error](cfg.RetryAfter))
	go failed.Start()

	return &Fetcher{
		client:    cfg.Client,
		store:     cfg.Store,
		sem:       semaphore.NewWeighted(int64(cfg.Concurrency)),
		failed:    failed,
		timeout:   cfg.Timeout,
		userAgent: cfg.UserAgent,
		log:       cfg.Logger,
	}
}

// Fetch returns the bytes of the image at url, from the store when present
func (f *Fetcher) Fetch(ctx context.Context, url string, key tilecache.Key) ([]byte, error) {
	if f.store != nil {
		data, ok, err := f.store.Get(ctx, key)
		if err != nil {
			f.log.Warn("tile cache read failed", zap.Stringer("key", key), zap.Error(err))
		} else if ok {
			return data, nil
		}
	}

	if f.failed.Has(url) {
		return nil, ErrRecentlyFailed
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer f.sem.Release(1)

	data, err := f.download(ctx, url)
	if err != nil {
		if ctx.Err() == nil {
			f.failed.Set(url, err, ttlcache.DefaultTTL)
		}
		return nil, err
	}

	if f.store != nil {
		if err := f.store.Put(ctx, key, data); err != nil {
			f.log.Warn("tile cache write failed", zap.Stringer("key", key), zap.Error(err))
		}
	}
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s failed: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch tile %s: %s", url, resp.Status)
	}
	// WMS servers may report exceptions with a 200 status
	if ct := resp.Header.Get("Content-Type"); strings.Contains(ct, "xml") {
		return nil, fmt.Errorf("failed to fetch tile %s: service exception (%s)", url, ct)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s failed: %w", url, err)
	}

	f.log.Debug("tile fetched",
		zap.String("url", url),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)))
	return data, nil
}

// Close stops the failed-request expiry loop
func (f *Fetcher) Close() {
	f.closeOnce.Do(f.failed.Stop)
}
