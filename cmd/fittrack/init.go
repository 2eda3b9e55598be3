package main

import (
	"bufio"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	initOutput    string
	initDataDir   string
	initListen    string
	initHostname  string
	initACME      bool
	initACMEEmail string
	initAdminCIDR string
	initForce     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize FitTrack server configuration",
	Long: `Interactive wizard to create a FitTrack server configuration file
with a freshly generated token signing secret.

Examples:
  fittrack init

  fittrack init --hostname fit.example.com --acme --acme-email ops@example.com

  fittrack init --data-dir ./data -o dev.yaml`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", "config.yaml", "Output configuration file path")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", "/var/lib/fittrack", "Data directory for the database and certificates")
	initCmd.Flags().StringVar(&initListen, "listen", ":8080", "API listen address")
	initCmd.Flags().StringVar(&initHostname, "hostname", "", "Public hostname of the API (required for --acme)")
	initCmd.Flags().BoolVar(&initACME, "acme", false, "Enable Let's Encrypt TLS")
	initCmd.Flags().StringVar(&initACMEEmail, "acme-email", "", "Email for Let's Encrypt account")
	initCmd.Flags().StringVar(&initAdminCIDR, "admin-cidr", "", "Restrict admin endpoints to this IP/CIDR")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")

	rootCmd.AddCommand(initCmd)
}

// initOptions are the answers the generated config is built from
type initOptions struct {
	DataDir   string
	Listen    string
	Hostname  string
	ACME      bool
	ACMEEmail string
	AdminCIDR string
	JWTSecret string
}

func runInit(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("FitTrack Configuration Wizard")
	fmt.Println("=============================")
	fmt.Println()

	opts := initOptions{
		DataDir:   prompt(reader, "Data directory", initDataDir),
		Listen:    prompt(reader, "API listen address", initListen),
		Hostname:  initHostname,
		ACME:      initACME,
		ACMEEmail: initACMEEmail,
		AdminCIDR: initAdminCIDR,
	}

	if !opts.ACME {
		answer := prompt(reader, "Enable Let's Encrypt TLS? [y/N]", "n")
		opts.ACME = strings.ToLower(answer) == "y" || strings.ToLower(answer) == "yes"
	}
	if opts.ACME {
		if opts.Hostname == "" {
			opts.Hostname = prompt(reader, "Public hostname (e.g., fit.example.com)", "")
			if opts.Hostname == "" {
				return fmt.Errorf("hostname is required for Let's Encrypt")
			}
		}
		if opts.ACMEEmail == "" {
			opts.ACMEEmail = prompt(reader, "Email for Let's Encrypt", "admin@"+opts.Hostname)
		}
	}

	secret, err := generateSecret(32)
	if err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	opts.JWTSecret = secret

	if !initForce {
		if _, err := os.Stat(initOutput); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", initOutput)
		}
	}

	fmt.Println()
	fmt.Println("Creating configuration...")

	if err := os.MkdirAll(opts.DataDir, 0755); err != nil {
		fmt.Printf("  Warning: Could not create data directory: %v\n", err)
	}

	// The file carries the signing secret
	if err := os.WriteFile(initOutput, []byte(generateConfig(opts)), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("  Configuration saved to: %s\n", initOutput)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. Review %s\n", initOutput)
	fmt.Printf("  2. Create an administrator: fittrack user create -c %s --username admin --email admin@example.com --admin\n", initOutput)
	fmt.Printf("  3. Start the server: fittrack serve -c %s\n", initOutput)
	return nil
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

func generateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func generateConfig(opts initOptions) string {
	var tlsSection string
	if opts.ACME {
		tlsSection = fmt.Sprintf(`  tls:
    acme:
      enabled: true
      email: "%s"
      domains:
        - "%s"
      cache_dir: "%s"`, opts.ACMEEmail, opts.Hostname, filepath.Join(opts.DataDir, "certs"))
	} else {
		tlsSection = `  # Uncomment to serve HTTPS with your own certificate
  # tls:
  #   cert_file: "/etc/fittrack/cert.pem"
  #   key_file: "/etc/fittrack/key.pem"`
	}

	adminSection := `  # admin_allowed_ips: ["10.0.0.0/8"]`
	if opts.AdminCIDR != "" {
		adminSection = fmt.Sprintf(`  admin_allowed_ips: ["%s"]`, opts.AdminCIDR)
	}

	return fmt.Sprintf(`# FitTrack server configuration
# Generated by: fittrack init

server:
  listen_addr: "%s"
  read_timeout: 30s
  write_timeout: 30s
  idle_timeout: 60s
%s
%s

database:
  path: "%s"

auth:
  jwt_secret: "%s"
  token_ttl: 24h
  login_max_failures: 5
  login_window: 15m

monitor:
  enabled: true
  action_threshold: 10   # flag users with more actions than this
  window: 1m
  poll_interval: 30s

notify:
  enabled: false
  smtp_addr: "localhost:25"
  from: "fittrack@localhost"
  to: []

metrics:
  enabled: false
  listen_addr: "127.0.0.1:9090"
  path: "/metrics"
  allowed_ips: []

logging:
  level: info
  format: json
`, opts.Listen, adminSection, tlsSection, filepath.Join(opts.DataDir, "fittrack.db"), opts.JWTSecret)
}
