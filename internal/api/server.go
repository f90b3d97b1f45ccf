// Package api exposes a small HTTP surface for inspecting a running
// service: lifecycle status, recent logs, Prometheus metrics, and an
// input channel into the caged process.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/cagesvc/internal/logging"
	"github.com/smazurov/cagesvc/internal/service"
	"github.com/smazurov/cagesvc/internal/version"
)

// Options wires the server to the rest of the process.
type Options struct {
	Controller     *service.Controller
	Buffer         *logging.RingBuffer
	MetricsHandler http.Handler
	// Stale reports whether the on-disk config has drifted from what
	// the running cage was started with. May be nil.
	Stale func() bool
}

// Server is the Huma v2 API server.
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	options    *Options
	logger     *slog.Logger
}

// NewServer creates the API server and registers all routes.
func NewServer(opts *Options, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	config := huma.DefaultConfig("cagesvc API", version.Get().Version)
	config.Info.Description = "Lifecycle and observability API for a caged service process"
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:     api,
		mux:     mux,
		options: opts,
		logger:  logger,
	}

	api.UseMiddleware(server.loggingMiddleware)

	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	server.registerStatusRoutes()
	server.registerLogRoutes()
	server.registerInputRoutes()

	return server
}

// Start serves HTTP on the given address. It blocks until the server
// stops and returns http.ErrServerClosed on clean shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting API server", "addr", addr)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.mux,
	}
	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down without waiting for open connections.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	if s.httpServer != nil {
		return s.httpServer.Close()
	}
	return nil
}

// loggingMiddleware logs each request, escalating the level with the
// response status.
func (s *Server) loggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	method := ctx.Method()
	path := ctx.URL().Path

	next(ctx)

	status := ctx.Status()
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	}

	switch {
	case status >= 500:
		s.logger.LogAttrs(ctx.Context(), slog.LevelError, "HTTP request completed", attrs...)
	case status >= 400:
		s.logger.LogAttrs(ctx.Context(), slog.LevelWarn, "HTTP request completed", attrs...)
	default:
		s.logger.LogAttrs(ctx.Context(), slog.LevelInfo, "HTTP request completed", attrs...)
	}
}
