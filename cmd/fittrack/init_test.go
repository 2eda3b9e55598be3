package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/foxzi/fittrack/internal/config"
)

func TestGenerateConfigLoads(t *testing.T) {
	dataDir := t.TempDir()

	tests := []struct {
		name string
		opts initOptions
	}{
		{"plain http", initOptions{Listen: ":8080"}},
		{"acme", initOptions{Listen: ":443", Hostname: "fit.example.com", ACME: true, ACMEEmail: "ops@example.com"}},
		{"admin allow list", initOptions{Listen: "127.0.0.1:8080", AdminCIDR: "10.0.0.0/8"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := generateSecret(32)
			if err != nil {
				t.Fatalf("generateSecret() error = %v", err)
			}
			tt.opts.DataDir = dataDir
			tt.opts.JWTSecret = secret

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(generateConfig(tt.opts)), 0600); err != nil {
				t.Fatal(err)
			}

			cfg, err := config.Load(path)
			if err != nil {
				t.Fatalf("generated config does not load: %v", err)
			}
			if cfg.Auth.JWTSecret != secret {
				t.Error("generated secret not carried into config")
			}
			if cfg.Server.ListenAddr != tt.opts.Listen {
				t.Errorf("ListenAddr = %q, want %q", cfg.Server.ListenAddr, tt.opts.Listen)
			}
			if cfg.Server.TLS.ACME.Enabled != tt.opts.ACME {
				t.Errorf("ACME.Enabled = %v, want %v", cfg.Server.TLS.ACME.Enabled, tt.opts.ACME)
			}
			if tt.opts.AdminCIDR != "" && (len(cfg.Server.AdminAllowedIPs) != 1 || cfg.Server.AdminAllowedIPs[0] != tt.opts.AdminCIDR) {
				t.Errorf("AdminAllowedIPs = %v", cfg.Server.AdminAllowedIPs)
			}
			if cfg.Database.Path != filepath.Join(dataDir, "fittrack.db") {
				t.Errorf("Database.Path = %q", cfg.Database.Path)
			}
		})
	}
}

func TestGenerateSecret(t *testing.T) {
	a, err := generateSecret(32)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := generateSecret(32)

	if len(a) != 64 {
		t.Errorf("secret length = %d, want 64 hex chars", len(a))
	}
	if a == b {
		t.Error("two generated secrets are identical")
	}
}
