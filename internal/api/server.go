package api

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"

	"github.com/foxzi/fittrack/internal/auth"
	"github.com/foxzi/fittrack/internal/config"
	"github.com/foxzi/fittrack/internal/ipfilter"
	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/models"
	"github.com/foxzi/fittrack/internal/ratelimit"
)

// UserStore persists accounts and body metrics
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetMetrics(ctx context.Context, userID string) (*models.UserMetrics, error)
	SetMetrics(ctx context.Context, m *models.UserMetrics) error
}

// TrainingStore persists trainings
type TrainingStore interface {
	Create(ctx context.Context, t *models.Training) error
	Update(ctx context.Context, t *models.Training) error
	GetByID(ctx context.Context, userID, id string) (*models.Training, error)
	ListByUser(ctx context.Context, userID string) ([]models.Training, error)
	Delete(ctx context.Context, userID, id string) error
}

// StatsStore computes training statistics
type StatsStore interface {
	MuscleGroups(ctx context.Context, userID string) ([]models.MuscleGroupShare, error)
	TotalWeight(ctx context.Context, userID string) ([]models.SessionWeight, error)
	Progress(ctx context.Context, userID, exercise string) ([]models.ProgressPoint, error)
}

// ActivityStore is the append-only activity log
type ActivityStore interface {
	Add(ctx context.Context, entry *models.ActivityLogEntry) error
	List(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLogEntry, error)
}

// MonitoredStore gives administrators access to flagged users
type MonitoredStore interface {
	List(ctx context.Context) ([]models.MonitoredUser, error)
	Delete(ctx context.Context, id string) error
}

// Deps are the collaborators of the API server
type Deps struct {
	Users     UserStore
	Trainings TrainingStore
	Stats     StatsStore
	Activity  ActivityStore
	Monitored MonitoredStore
	Tokens    *auth.Tokens
	Clock     clockwork.Clock

	// LoginLimiter throttles failed logins, nil disables it
	LoginLimiter *ratelimit.Limiter
}

// Server is the HTTP API server
type Server struct {
	router      *chi.Mux
	httpServer  *http.Server
	deps        Deps
	config      *config.ServerConfig
	adminFilter *ipfilter.Filter
	tlsConfig   *tls.Config
	logger      *slog.Logger
	startTime   time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps, cfg *config.ServerConfig, logger *slog.Logger) *Server {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	s := &Server{
		router:    chi.NewRouter(),
		deps:      deps,
		config:    cfg,
		logger:    logger.With("component", "api"),
		startTime: time.Now(),
	}
	s.adminFilter = ipfilter.New("admin_api", cfg.AdminAllowedIPs, s.logger).
		WithDenyHandler(func(w http.ResponseWriter, r *http.Request) {
			sendError(w, http.StatusForbidden, "Forbidden")
		})

	s.setupRoutes()
	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.HTTPMiddleware)
	s.router.Use(middleware.Recoverer)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	s.router.Route("/api", func(r chi.Router) {
		// No auth required
		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/users/me", s.handleMe)
			r.Get("/users/me/metrics", s.handleGetMetrics)
			r.Put("/users/me/metrics", s.handleSetMetrics)

			r.Get("/trainings", s.handleListTrainings)
			r.Post("/trainings", s.handleCreateTraining)
			r.Get("/trainings/{id}", s.handleGetTraining)
			r.Put("/trainings/{id}", s.handleUpdateTraining)
			r.Delete("/trainings/{id}", s.handleDeleteTraining)

			r.Get("/stats/muscle-groups", s.handleMuscleGroups)
			r.Get("/stats/total-weight", s.handleTotalWeight)
			r.Get("/stats/progress", s.handleProgress)

			r.Group(func(r chi.Router) {
				r.Use(s.adminFilter.Middleware)
				r.Use(s.adminOnly)

				r.Get("/activity-logs", s.handleActivityLogs)
				r.Get("/monitored-users", s.handleListMonitored)
				r.Delete("/monitored-users/{id}", s.handleDeleteMonitored)
			})
		})
	})
}

// SetTLSConfig makes ListenAndServe serve HTTPS
func (s *Server) SetTLSConfig(cfg *tls.Config) {
	s.tlsConfig = cfg
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddr,
		Handler:        s.router,
		TLSConfig:      s.tlsConfig,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
	}

	if s.tlsConfig != nil {
		s.logger.Info("starting HTTPS API server", "addr", s.config.ListenAddr)
		return s.httpServer.ListenAndServeTLS("", "")
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
