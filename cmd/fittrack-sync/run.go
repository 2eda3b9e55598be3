package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/netstatus"
	"github.com/foxzi/fittrack/internal/syncer"
)

var runMetricsAddr string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon",
	Long: `Watch connectivity and replay queued operations whenever the server
becomes reachable again.`,
	RunE: runDaemon,
}

func init() {
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9091)")
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if runMetricsAddr != "" {
		m := metrics.New()
		metrics.SetGlobal(m)
		srv := metrics.NewServer(m, runMetricsAddr, "/metrics", nil, s.logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	s.tracker.OnServerAvailable(func(ctx context.Context) {
		if _, err := s.engine.Sync(ctx); err != nil {
			s.logger.Error("sync failed", "error", err)
		}
	})

	pending, err := s.engine.PendingCount(ctx)
	if err != nil {
		return err
	}
	metrics.SetOfflinePending(pending)

	s.logger.Info("starting sync daemon",
		"server", s.cfg.ServerURL,
		"pending", pending,
		"health_interval", s.cfg.Health.Interval,
	)

	watcher := netstatus.NewLinkWatcher(s.tracker, nil, s.cfg.Link.PollInterval, s.logger)
	watcher.Start(ctx)
	defer watcher.Stop()

	s.tracker.Start(ctx)

	retrier := syncer.NewRetrier(s.engine, s.tracker, nil, s.cfg.Health.Interval, s.logger)
	retrier.Start(ctx)
	defer retrier.Stop()

	<-ctx.Done()
	s.logger.Info("shutdown signal received")
	return nil
}
