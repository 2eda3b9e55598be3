package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/client"
	"github.com/foxzi/fittrack/internal/config"
	"github.com/foxzi/fittrack/internal/logging"
	"github.com/foxzi/fittrack/internal/netstatus"
	"github.com/foxzi/fittrack/internal/offline"
	"github.com/foxzi/fittrack/internal/syncer"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fittrack-sync",
	Short: "FitTrack offline client",
	Long: `fittrack-sync records trainings and metrics against a FitTrack server.
Changes made while the server is unreachable are queued locally and replayed
in order once it is back.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fittrack-sync version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: "+config.DefaultClientPath()+")")
	rootCmd.AddCommand(versionCmd)
}

// session holds the client components shared by all commands
type session struct {
	cfg     *config.ClientConfig
	logger  *slog.Logger
	storage *offline.SharedStorage
	client  *client.Client
	tracker *netstatus.Tracker
	engine  *syncer.Engine
	gateway *syncer.Gateway
}

func openSession() (*session, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultClientPath()
	}

	cfg, err := config.LoadClient(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(cfg.Logging, os.Stderr)

	// The queue file is opened per call so the daemon and CLI commands can share it
	storage, err := offline.NewSharedStorage(cfg.Storage.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open offline storage: %w", err)
	}

	c := client.New(cfg.ServerURL, cfg.RequestTimeout)
	token, err := storage.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	c.SetToken(token)

	online, err := netstatus.HasLink()
	if err != nil {
		logger.Warn("failed to read network interfaces, assuming online", "error", err)
		online = true
	}

	tracker := netstatus.NewTracker(c, online, nil, netstatus.Config{
		Interval: cfg.Health.Interval,
		Timeout:  cfg.Health.Timeout,
	}, logger)

	gateway := syncer.NewGateway(storage, c, tracker, logger)
	gateway.PreserveOrder(true)

	return &session{
		cfg:     cfg,
		logger:  logger,
		storage: storage,
		client:  c,
		tracker: tracker,
		engine:  syncer.NewEngine(storage, c, logger),
		gateway: gateway,
	}, nil
}

func (s *session) Close() {
	s.tracker.Stop()
}

// requireLogin fails early for commands that need a token
func (s *session) requireLogin() error {
	if s.client.Token() == "" {
		return fmt.Errorf("not logged in (run fittrack-sync login)")
	}
	return nil
}
