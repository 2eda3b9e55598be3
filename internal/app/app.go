// Package app wires the FitTrack server components together.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/foxzi/fittrack/internal/api"
	"github.com/foxzi/fittrack/internal/auth"
	"github.com/foxzi/fittrack/internal/certs"
	"github.com/foxzi/fittrack/internal/config"
	"github.com/foxzi/fittrack/internal/db"
	"github.com/foxzi/fittrack/internal/dkim"
	"github.com/foxzi/fittrack/internal/logging"
	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/monitor"
	"github.com/foxzi/fittrack/internal/notify"
	"github.com/foxzi/fittrack/internal/ratelimit"
	"github.com/foxzi/fittrack/internal/repository"
)

// App is the main application
type App struct {
	config           *config.Config
	db               *db.DB
	apiServer        *api.Server
	monitor          *monitor.Monitor
	metricsServer    *metrics.Server
	metricsCollector *metrics.Collector
	challengeServer  *http.Server // ACME HTTP-01, nil unless ACME is enabled
	logger           *slog.Logger
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	return NewWithLogger(cfg, logging.New(cfg.Logging, os.Stdout))
}

// NewWithLogger creates a new application that logs to logger
func NewWithLogger(cfg *config.Config, logger *slog.Logger) (*App, error) {
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	clock := clockwork.NewRealClock()

	users := repository.NewUserRepository(database.DB)
	activity := repository.NewActivityRepository(database.DB)
	monitored := repository.NewMonitoredRepository(database.DB)

	a := &App{
		config: cfg,
		db:     database,
		logger: logger,
	}

	// Metrics are registered before any component records them
	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		a.metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path, cfg.Metrics.AllowedIPs, logger)
		a.metricsCollector = metrics.NewCollector(m, monitored, cfg.Database.Path, 15*time.Second, logger)
		logger.Info("metrics enabled", "addr", cfg.Metrics.ListenAddr, "path", cfg.Metrics.Path)
	}

	deps := api.Deps{
		Users:     users,
		Trainings: repository.NewTrainingRepository(database.DB),
		Stats:     repository.NewStatsRepository(database.DB),
		Activity:  activity,
		Monitored: monitored,
		Tokens:    auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, clock),
		Clock:     clock,
	}
	if cfg.Auth.LoginMaxFailures > 0 {
		deps.LoginLimiter = ratelimit.NewLimiter(ratelimit.Config{
			MaxFailures: cfg.Auth.LoginMaxFailures,
			Window:      cfg.Auth.LoginWindow,
		}, clock)
	}
	a.apiServer = api.NewServer(deps, &cfg.Server, logger)

	switch tlsCfg := cfg.Server.TLS; {
	case tlsCfg.ACME.Enabled:
		acme := certs.NewACMEManager(tlsCfg.ACME.Email, tlsCfg.ACME.Domains, tlsCfg.ACME.CacheDir)
		a.apiServer.SetTLSConfig(acme.TLSConfig())
		a.challengeServer = &http.Server{
			Addr:              tlsCfg.ACME.ChallengeAddr,
			Handler:           acme.HTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("ACME TLS enabled", "domains", tlsCfg.ACME.Domains, "challenge_addr", tlsCfg.ACME.ChallengeAddr)
	case tlsCfg.CertFile != "":
		serverTLS, err := certs.LoadCertificate(tlsCfg.CertFile, tlsCfg.KeyFile)
		if err != nil {
			database.Close()
			return nil, err
		}
		a.apiServer.SetTLSConfig(serverTLS)
		logger.Info("TLS enabled", "cert_file", tlsCfg.CertFile)
	}

	if cfg.Monitor.IsEnabled() {
		var notifier monitor.Notifier
		if cfg.Notify.Enabled {
			var signer notify.MessageSigner
			if cfg.Notify.DKIM.Enabled {
				s, err := dkim.NewSignerFromFile(cfg.Notify.DKIM.KeyFile, cfg.Notify.DKIM.Domain, cfg.Notify.DKIM.Selector)
				if err != nil {
					database.Close()
					return nil, err
				}
				signer = s
				logger.Info("notification DKIM signing enabled", "domain", s.Domain(), "selector", s.Selector())
			}

			notifier = notify.NewEmailNotifier(notify.EmailConfig{
				Addr:     cfg.Notify.SMTPAddr,
				Username: cfg.Notify.Username,
				Password: cfg.Notify.Password,
				From:     cfg.Notify.From,
				To:       cfg.Notify.To,
				Signer:   signer,
			}, logger)
			logger.Info("admin notifications enabled", "relay", cfg.Notify.SMTPAddr, "recipients", len(cfg.Notify.To))
		}

		a.monitor = monitor.New(activity, monitored, users, notifier, clock, monitor.Config{
			ActionThreshold: cfg.Monitor.ActionThreshold,
			Window:          cfg.Monitor.Window,
			PollInterval:    cfg.Monitor.PollInterval,
		}, logger)
	} else {
		logger.Warn("activity monitor disabled")
	}

	return a, nil
}

// Handler returns the API handler
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting fittrack",
		"api_addr", a.config.Server.ListenAddr,
		"database", a.config.Database.Path,
		"monitor", a.monitor != nil,
	)

	// Create context that listens for signals
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if a.monitor != nil {
		a.monitor.Start(ctx)
	}
	if a.metricsCollector != nil {
		a.metricsCollector.Start(ctx)
	}

	errCh := make(chan error, 3)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	if a.challengeServer != nil {
		go func() {
			a.logger.Info("starting ACME challenge server", "addr", a.challengeServer.Addr)
			if err := a.challengeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("acme challenge server: %w", err)
			}
		}()
	}

	// Wait for shutdown signal or error
	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("server error", "error", runErr)
		cancel()
	}

	if err := a.Shutdown(context.Background()); err != nil {
		return err
	}
	return runErr
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop background work first so no scan runs against a closed database
	if a.monitor != nil {
		a.monitor.Stop()
	}
	if a.metricsCollector != nil {
		a.metricsCollector.Stop()
	}

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if a.challengeServer != nil {
		if err := a.challengeServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("acme challenge server shutdown error", "error", err)
		}
	}

	if err := a.db.Close(); err != nil {
		a.logger.Error("database close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}
