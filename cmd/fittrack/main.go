package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/app"
	"github.com/foxzi/fittrack/internal/config"
	"github.com/foxzi/fittrack/internal/db"
	"github.com/foxzi/fittrack/internal/dkim"
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
	Use:   "fittrack",
	Short: "FitTrack - fitness tracking server",
	Long:  `FitTrack is the API server for logging trainings. It also watches the activity log for suspicious bursts of requests.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the FitTrack HTTP API together with the activity monitor.`,
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fittrack version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, configCmd, versionCmd)
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return nil, fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openDatabase opens and migrates the database named in the config
func openDatabase() (*db.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  API: %s\n", cfg.Server.ListenAddr)
	switch {
	case cfg.Server.TLS.ACME.Enabled:
		fmt.Printf("  TLS: ACME for %v (challenge on %s)\n", cfg.Server.TLS.ACME.Domains, cfg.Server.TLS.ACME.ChallengeAddr)
	case cfg.Server.TLS.CertFile != "":
		fmt.Printf("  TLS: %s\n", cfg.Server.TLS.CertFile)
	}
	if len(cfg.Server.AdminAllowedIPs) > 0 {
		fmt.Printf("  Admin allowed from: %v\n", cfg.Server.AdminAllowedIPs)
	}
	fmt.Printf("  Database: %s\n", cfg.Database.Path)
	if cfg.Monitor.IsEnabled() {
		fmt.Printf("  Monitor: more than %d actions in %s, every %s\n",
			cfg.Monitor.ActionThreshold, cfg.Monitor.Window, cfg.Monitor.PollInterval)
	} else {
		fmt.Printf("  Monitor: disabled\n")
	}
	if cfg.Notify.Enabled {
		fmt.Printf("  Notify: %s -> %v\n", cfg.Notify.SMTPAddr, cfg.Notify.To)
		if cfg.Notify.DKIM.Enabled {
			fmt.Printf("  DKIM: %s\n", dkim.DNSName(cfg.Notify.DKIM.Selector, cfg.Notify.DKIM.Domain))
		}
	}
	if cfg.Metrics.Enabled {
		fmt.Printf("  Metrics: %s%s\n", cfg.Metrics.ListenAddr, cfg.Metrics.Path)
	}

	return nil
}
