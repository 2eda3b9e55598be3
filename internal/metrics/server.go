package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foxzi/fittrack/internal/ipfilter"
)

// Server serves Prometheus metrics over HTTP
type Server struct {
	httpServer *http.Server
	metrics    *Metrics
	addr       string
	path       string
	logger     *slog.Logger
	filter     *ipfilter.Filter
}

// NewServer creates a new metrics HTTP server. An empty allow list permits every client.
func NewServer(m *Metrics, addr, path string, allowedIPs []string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = ":9090"
	}
	if path == "" {
		path = "/metrics"
	}

	return &Server{
		metrics: m,
		addr:    addr,
		path:    path,
		logger:  logger,
		filter:  ipfilter.New("metrics", allowedIPs, logger),
	}
}

// Handler returns the HTTP handler of the metrics listener
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.With(s.filter.Middleware).Handle(s.path, promhttp.HandlerFor(
		s.metrics.Registry(),
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	))

	// No IP filtering, useful for load balancers
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}

// ListenAndServe starts the metrics HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.logger.Info("starting metrics server", "addr", s.addr, "path", s.path)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the metrics server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}
