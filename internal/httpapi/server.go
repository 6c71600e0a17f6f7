// Package httpapi serves the market cache over HTTP. No handler ever calls
// upstream; every response is built from the in-memory snapshot.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rickgao/kalshi-tennis/internal/model"
)

// SnapshotProvider is the read side of the cache. *marketcache.Cache implements it.
type SnapshotProvider interface {
	Snapshot() *model.Snapshot
	Health() model.Health
}

// Server exposes /markets, /health, /metrics and /stream.
type Server struct {
	cache        SnapshotProvider
	metrics      http.Handler
	logger       *slog.Logger
	upgrader     websocket.Upgrader
	pushInterval time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithPushInterval sets how often /stream checks for a new snapshot.
func WithPushInterval(d time.Duration) Option {
	return func(s *Server) {
		s.pushInterval = d
	}
}

// New creates a Server over cache.
func New(cache SnapshotProvider, opts ...Option) *Server {
	s := &Server{
		cache:        cache,
		logger:       slog.Default(),
		pushInterval: time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /markets", s.handleMarkets)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stream", s.handleStream)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	snap := s.cache.Snapshot()
	if snap == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no snapshot available"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Health())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
