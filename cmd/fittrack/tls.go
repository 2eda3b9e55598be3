package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/foxzi/fittrack/internal/certs"
)

var tlsCmd = &cobra.Command{
	Use:   "tls",
	Short: "TLS certificate management",
}

var tlsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show TLS certificate status of the API listener",
	Long: `Show the configured certificate, or the ACME certificates cached on disk.
ACME certificates are obtained on the first HTTPS handshake and renewed
automatically while the server runs.`,
	RunE: runTLSStatus,
}

func init() {
	tlsCmd.AddCommand(tlsStatusCmd)
	rootCmd.AddCommand(tlsCmd)
}

func runTLSStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tlsCfg := cfg.Server.TLS
	now := time.Now()

	if !tlsCfg.Enabled() {
		fmt.Println("TLS is not configured, the API is served over plain HTTP")
		return nil
	}

	if !tlsCfg.ACME.Enabled {
		info, err := certs.Inspect(tlsCfg.CertFile)
		if err != nil {
			return fmt.Errorf("failed to read certificate: %w", err)
		}
		fmt.Println("TLS Certificate (manual):")
		fmt.Printf("  File: %s\n", tlsCfg.CertFile)
		fmt.Printf("  Subject: %s\n", info.Subject)
		fmt.Printf("  Issuer: %s\n", info.Issuer)
		fmt.Printf("  Valid from: %s\n", info.NotBefore.Format(time.RFC3339))
		fmt.Printf("  Valid until: %s\n", info.NotAfter.Format(time.RFC3339))
		fmt.Printf("  Days left: %d\n", info.DaysLeft(now))
		fmt.Printf("  Status: %s\n", info.Status(now))
		return nil
	}

	acme := certs.NewACMEManager(tlsCfg.ACME.Email, tlsCfg.ACME.Domains, tlsCfg.ACME.CacheDir)
	cached, err := acme.CachedCertificates(context.Background())
	if err != nil {
		return err
	}

	if len(cached) == 0 {
		fmt.Println("ACME certificates not found in cache.")
		fmt.Println("They are requested on the first HTTPS connection to the running server.")
		return nil
	}

	fmt.Println("ACME Certificates:")
	for _, info := range cached {
		fmt.Printf("  %s:\n", info.Domain)
		fmt.Printf("    Valid until: %s\n", info.NotAfter.Format(time.RFC3339))
		fmt.Printf("    Days left: %d\n", info.DaysLeft(now))
		fmt.Printf("    Status: %s\n", info.Status(now))
	}
	return nil
}
