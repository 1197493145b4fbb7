// Package server provides the HTTP API for kugiri.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/kugiri/internal/config"
	"github.com/hyperjump/kugiri/internal/dispatch"
	"github.com/hyperjump/kugiri/internal/relay"
	"github.com/hyperjump/kugiri/internal/storage"
)

// InboxService lists, adds and removes watched inbox directories.
type InboxService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the kugiri API.
type Server struct {
	relay      *relay.Relay
	delivery   dispatch.Options
	config     *config.Config
	configPath string
	configMu   sync.Mutex
	inbox      InboxService
	history    storage.Storage
	schedOpts  []dispatch.SchedulerOption
	logger     *zap.Logger
	server     *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithInbox enables the inbox directory endpoints. When configPath is set, directory
// changes are written back to that file.
func WithInbox(inbox InboxService, configPath string) Option {
	return func(s *Server) {
		s.inbox = inbox
		s.configPath = configPath
	}
}

// WithHistory enables the delivery history endpoints.
func WithHistory(h storage.Storage) Option {
	return func(s *Server) { s.history = h }
}

// WithSchedulerOptions passes options to the scheduler of every streamed delivery.
func WithSchedulerOptions(opts ...dispatch.SchedulerOption) Option {
	return func(s *Server) { s.schedOpts = append(s.schedOpts, opts...) }
}

// NewServer creates a server that segments with rl and streams deliveries paced by cfg.Delivery.
func NewServer(rl *relay.Relay, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		relay:    rl,
		delivery: cfg.Delivery.DispatchOptions(),
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router. Streaming deliveries bypass the timeout and compression
// middleware, which would buffer or cut them.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/v1/deliver", s.handleDeliver)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(middleware.Compress(5))
		r.Post("/api/v1/segment", s.handleSegment)
		r.Get("/api/v1/config", s.handleConfig)
		r.Get("/api/v1/inbox/directories", s.handleInboxList)
		r.Post("/api/v1/inbox/directories", s.handleInboxAdd)
		r.Delete("/api/v1/inbox/directories", s.handleInboxRemove)
		r.Get("/api/v1/deliveries", s.handleDeliveryList)
		r.Get("/api/v1/deliveries/{runID}", s.handleDeliveryGet)
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)))
	})
}
