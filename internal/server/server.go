// Package server provides the HTTP API for waygraph.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/hyperjump/waygraph/internal/config"
	"github.com/hyperjump/waygraph/internal/extract"
	"github.com/hyperjump/waygraph/internal/frames"
	"github.com/hyperjump/waygraph/internal/indexer"
	"github.com/hyperjump/waygraph/internal/layout"
	"github.com/hyperjump/waygraph/internal/metrics"
	"go.uber.org/zap"
)

// GraphView exposes the current layout without advancing it.
type GraphView interface {
	Snapshot() layout.Snapshot
}

// Server is the HTTP server for the waygraph API.
type Server struct {
	indexer    *indexer.Indexer
	graph      GraphView
	hub        *frames.Hub
	config     *config.ServerConfig
	metrics    *metrics.Collector
	logger     *zap.Logger
	transcript extract.TranscriptOptions
	upgrader   websocket.Upgrader
	mu         sync.Mutex
	server     *http.Server
	done       chan struct{}
	stopOnce   sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and serves them at /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithHub streams frames from hub at /api/v1/graph/stream.
func WithHub(h *frames.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithTranscriptOptions sets how chat transcripts are turned into notes.
func WithTranscriptOptions(o extract.TranscriptOptions) Option {
	return func(s *Server) { s.transcript = o }
}

// NewServer creates a server with the given dependencies.
func NewServer(idx *indexer.Indexer, graph GraphView, cfg *config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		indexer:    idx,
		graph:      graph,
		config:     cfg,
		logger:     logger,
		transcript: extract.DefaultTranscriptOptions(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// long-lived; kept out of the timeout and compression group
		r.Get("/graph/stream", s.handleGraphStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(middleware.Compress(5))

			r.Post("/embed", s.handleEmbed)
			r.Post("/notes", s.handleAddNote)
			r.Post("/notes/extract", s.handleExtractNotes)
			r.Post("/notes/similar", s.handleSimilar)
			r.Get("/notes", s.handleListNotes)
			r.Get("/notes/search", s.handleSearch)
			r.Get("/notes/{id}", s.handleGetNote)
			r.Get("/graph", s.handleGraph)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops. Start after Stop returns nil.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		return nil
	default:
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("Starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server and ends open graph streams.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopOnce.Do(func() { close(s.done) })
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		return srv.Shutdown(ctx)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// requestLogger logs each request and records it in the metrics collector.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Method, route, status)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
