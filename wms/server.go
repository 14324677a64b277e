package wms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/OpticalFlyer/basemaps/config"
	"github.com/OpticalFlyer/basemaps/proj"
	"github.com/OpticalFlyer/basemaps/tilecache"
)

// ImageSource records how the bytes of a GetMap response were obtained
type ImageSource int

const (
	NewlyGenerated ImageSource = iota
	FoundInCache
	ConvertedFromCachedPNG
)

func (s ImageSource) String() string {
	switch s {
	case FoundInCache:
		return "FOUND_IN_CACHE"
	case ConvertedFromCachedPNG:
		return "CONVERTED_FROM_CACHED_PNG"
	default:
		return "NEWLY_GENERATED"
	}
}

// Debug headers, sent when the request has DEBUG_HEADERS=true
const (
	HeaderFirstRequest = "X-Basemaps-FirstRequest"
	HeaderImageSource  = "X-Basemaps-ImageSource"
	HeaderGetMapTime   = "X-Basemaps-GetMapTime"
	HeaderBytesSaved   = "X-Basemaps-BytesSaved"
)

// Server answers WMS GetMap requests by reprojecting source images
type Server struct {
	cfg     config.ServerConfig
	sources map[string]*Source
	cache   *tilecache.Memory
	log     *zap.Logger

	served atomic.Bool
}

// NewServer creates a server for the given source images, each published
// as a layer under its name
func NewServer(cfg config.ServerConfig, log *zap.Logger, sources ...*Source) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cache, err := tilecache.NewMemory(cfg.CacheEntries)
	if err != nil {
		return nil, fmt.Errorf("creating image cache: %w", err)
	}
	s := &Server{
		cfg:     cfg,
		sources: make(map[string]*Source, len(sources)),
		cache:   cache,
		log:     log,
	}
	for _, src := range sources {
		if _, ok := s.sources[src.Name]; ok {
			return nil, fmt.Errorf("layer %s is published twice", src.Name)
		}
		s.sources[src.Name] = src
	}
	return s, nil
}

// Router returns the server's routes without middleware
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter().StrictSlash(false)
	router.Path("/wms").HandlerFunc(s.handleWMS).Methods(http.MethodGet)
	router.Path("/ping").HandlerFunc(s.handlePing).Methods(http.MethodGet)

	admin := router.PathPrefix("/admin").Subrouter()
	admin.Path("/cache").HandlerFunc(s.handleCacheStats).Methods(http.MethodGet)
	admin.Path("/cache").HandlerFunc(s.handleCachePurge).Methods(http.MethodDelete)
	return router
}

// Handler returns the router wrapped with CORS, panic recovery and
// request logging
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.Router()
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodDelete, http.MethodOptions}),
	)(h)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(zap.NewStdLog(s.log)))(h)
	return handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	s.log.Debug("request",
		zap.String("method", p.Request.Method),
		zap.String("uri", p.URL.RequestURI()),
		zap.Int("status", p.StatusCode),
		zap.Int("size", p.Size))
}

// Run serves HTTP on the configured address until ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("WMS server listening",
			zap.String("addr", s.cfg.Addr),
			zap.Int("layers", len(s.sources)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("gracefully stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.cache.Stats()); err != nil {
		s.log.Warn("writing cache stats", zap.Error(err))
	}
}

func (s *Server) handleCachePurge(w http.ResponseWriter, _ *http.Request) {
	stats := s.cache.Stats()
	s.cache.Purge()
	s.log.Info("image cache purged",
		zap.String("entries", humanize.Comma(int64(stats.Entries))),
		zap.String("size", stats.Size))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWMS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := ParseGetMap(q, s.cfg.MaxImageSize)
	if err != nil {
		writeException(w, newParams(q)["version"], err)
		return
	}
	if err := s.getMap(r.Context(), w, req); err != nil {
		if r.Context().Err() == nil {
			s.log.Warn("GetMap failed", zap.Error(err))
		}
		writeException(w, req.Version, err)
	}
}

// getMap writes the image for req. Rendered images are kept as PNG so that
// a request for another format can be answered by converting a cached PNG.
func (s *Server) getMap(ctx context.Context, w http.ResponseWriter, req *GetMapRequest) error {
	start := time.Now()
	firstRequest := s.served.CompareAndSwap(false, true)

	src, ok := s.sources[req.Layer]
	if !ok {
		return exceptionf(CodeLayerNotDefined, "The layer %s is not provided by this server", req.Layer)
	}
	enc, ok := EncoderFor(req.Format)
	if !ok {
		return exceptionf(CodeInvalidFormat, "The image format %s is not supported by this server", req.Format)
	}
	p, err := proj.ForCode(req.CRS)
	if err != nil {
		return exceptionf(CodeInvalidCRS, "The CRS %s is not supported by this server", req.CRS)
	}

	key := tilecache.NewKey(req.Layer, req.Format, p.Code(), req.BBox, req.Width, req.Height)
	data, err := s.readCache(ctx, key, req.NoCache)
	if err != nil {
		return err
	}

	var (
		source     ImageSource
		converted  bool
		bytesSaved int
	)
	switch {
	case data != nil:
		source = FoundInCache
	case req.Format != FormatPNG:
		pngKey := key.WithFormat(FormatPNG)
		png, err := s.readCache(ctx, pngKey, req.NoCache)
		if err != nil {
			return err
		}
		if png == nil {
			if png, err = s.renderPNG(ctx, src, p, req); err != nil {
				return err
			}
			if err := s.cache.Put(ctx, pngKey, png); err != nil {
				return err
			}
			source = NewlyGenerated
		} else {
			source = ConvertedFromCachedPNG
		}
		if data, err = convert(png, enc); err != nil {
			return err
		}
		// Negative when the converted image is larger than the PNG
		converted, bytesSaved = true, len(png)-len(data)
		if err := s.cache.Put(ctx, key, data); err != nil {
			return err
		}
	default:
		if data, err = s.renderPNG(ctx, src, p, req); err != nil {
			return err
		}
		source = NewlyGenerated
		if err := s.cache.Put(ctx, key, data); err != nil {
			return err
		}
	}

	if req.DebugHeaders {
		h := w.Header()
		h.Set(HeaderFirstRequest, strconv.FormatBool(firstRequest))
		h.Set(HeaderImageSource, source.String())
		h.Set(HeaderGetMapTime, strconv.FormatInt(time.Since(start).Nanoseconds(), 10))
		if converted {
			h.Set(HeaderBytesSaved, strconv.Itoa(bytesSaved))
		}
	}

	s.log.Debug("GetMap",
		zap.String("layer", req.Layer),
		zap.String("crs", req.CRS),
		zap.Stringer("bbox", req.BBox),
		zap.String("format", req.Format),
		zap.Stringer("source", source),
		zap.Duration("elapsed", time.Since(start)))

	w.Header().Set("Content-Type", req.Format)
	// Clients such as map viewers often disconnect mid-response
	_, _ = w.Write(data)
	return nil
}

func (s *Server) readCache(ctx context.Context, key tilecache.Key, skip bool) ([]byte, error) {
	if skip {
		return nil, nil
	}
	data, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	return data, nil
}

func (s *Server) renderPNG(ctx context.Context, src *Source, p proj.Projection, req *GetMapRequest) ([]byte, error) {
	img, err := Render(ctx, src, p, req.BBox, req.Width, req.Height)
	if err != nil {
		return nil, err
	}
	return (&PNGEncoder{}).Encode(img)
}

func convert(png []byte, enc Encoder) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("decoding cached PNG: %w", err)
	}
	return enc.Encode(img)
}

// CacheStats returns the usage counters of the image cache
func (s *Server) CacheStats() tilecache.Stats {
	return s.cache.Stats()
}
