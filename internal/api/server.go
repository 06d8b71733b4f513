// Package api implements the HTTP API: pass prediction, instantaneous
// position and visibility, footprint generation, and operational endpoints.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shivmishra76/sat-tracker-cli/internal/auth"
	"github.com/shivmishra76/sat-tracker-cli/internal/cache"
	"github.com/shivmishra76/sat-tracker-cli/internal/health"
	"github.com/shivmishra76/sat-tracker-cli/internal/metrics"
	"github.com/shivmishra76/sat-tracker-cli/internal/ratelimit"
	"github.com/shivmishra76/sat-tracker-cli/internal/tle"
)

// Config holds the server's tunables.
type Config struct {
	Addr       string
	AuthToken  string // empty disables auth
	TrustProxy bool
	MaxPerIP   int
	MaxTotal   int
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	store      *tle.Store
	predCache  *cache.PredictionCache
	logger     *slog.Logger
	now        func() time.Time // injectable clock
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, store *tle.Store, predCache *cache.PredictionCache, logger *slog.Logger) *Server {
	s := &Server{
		store:     store,
		predCache: predCache,
		logger:    logger,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(store))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/v1/passes", s.handlePasses)
	mux.HandleFunc("GET /api/v1/position", s.handlePosition)
	mux.HandleFunc("GET /api/v1/footprint", s.handleFootprint)
	mux.HandleFunc("GET /api/v1/tle/metadata", s.handleTLEMetadata)
	mux.HandleFunc("GET /api/v1/cache/stats", s.handleCacheStats)

	limiter := ratelimit.NewLimiter(cfg.MaxPerIP, cfg.MaxTotal)

	// Middleware chain: metrics -> logging -> ratelimit -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(cfg.AuthToken)(handler)
	handler = limiter.Middleware(cfg.TrustProxy)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the fully wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
