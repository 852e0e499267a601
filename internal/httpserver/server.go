// internal/httpserver/server.go
package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulse/internal/config"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/mw"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/routes"
	"github.com/MrSnakeDoc/pulse/internal/logger"
)

// DefaultRequestTimeout bounds a request. Mutations retry with backoff, so
// it is well above a single store call.
const DefaultRequestTimeout = 30 * time.Second

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
	cancel  context.CancelFunc
}

// NewRouter builds the router (middlewares, route registration).
func NewRouter(loggerClient logger.Logger, d deps.Deps) chi.Router {
	timeout := requestTimeout(d)

	r := chi.NewRouter()

	// --- Global middlewares
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)      // X-Request-ID on each request
	r.Use(middleware.Recoverer)      // never crash the process on panic
	r.Use(mw.Log(loggerClient))      // structured access logs
	r.Use(mw.CORS(d.AllowedOrigins)) // dashboard origins

	// Streams outlive the per-request timeout.
	routes.RegisterAll(r, d, middleware.Timeout(timeout))
	return r
}

// New builds the HTTP server around NewRouter.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	// Request contexts derive from base so hijacked streams end on shutdown.
	base, cancel := context.WithCancel(context.Background())

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(loggerClient, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout(d) + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	s.RegisterOnShutdown(cancel)

	return &Server{
		http:    s,
		logger:  loggerClient,
		started: d.StartTime,
		cancel:  cancel,
	}
}

func requestTimeout(d deps.Deps) time.Duration {
	if d.RequestTimeout <= 0 {
		return DefaultRequestTimeout
	}
	return d.RequestTimeout
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...",
		logger.Duration("uptime", time.Since(s.started)))
	defer s.cancel()
	return s.http.Shutdown(ctx)
}
