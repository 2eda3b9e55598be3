package certs

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/crypto/acme/autocert"
)

// ACMEManager obtains and renews certificates from Let's Encrypt on demand
type ACMEManager struct {
	manager *autocert.Manager
	cache   autocert.DirCache
	domains []string
}

// NewACMEManager creates a new ACME manager caching certificates under cacheDir
func NewACMEManager(email string, domains []string, cacheDir string) *ACMEManager {
	cache := autocert.DirCache(cacheDir)
	return &ACMEManager{
		manager: &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			Email:      email,
			HostPolicy: autocert.HostWhitelist(domains...),
			Cache:      cache,
		},
		cache:   cache,
		domains: domains,
	}
}

// Domains returns the list of configured domains
func (a *ACMEManager) Domains() []string {
	return a.domains
}

// TLSConfig returns the listener configuration. Certificates are fetched on the first handshake.
func (a *ACMEManager) TLSConfig() *tls.Config {
	cfg := a.manager.TLSConfig()
	cfg.MinVersion = tls.VersionTLS12
	return cfg
}

// HTTPHandler answers HTTP-01 challenges and redirects everything else to HTTPS
func (a *ACMEManager) HTTPHandler() http.Handler {
	return a.manager.HTTPHandler(nil)
}

// CachedCertificates reads certificates from the cache without contacting Let's Encrypt.
// Domains without a cached certificate are skipped.
func (a *ACMEManager) CachedCertificates(ctx context.Context) ([]*Info, error) {
	var results []*Info

	for _, domain := range a.domains {
		data, err := a.cache.Get(ctx, domain)
		if errors.Is(err, autocert.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return results, fmt.Errorf("failed to read cached certificate for %s: %w", domain, err)
		}

		// autocert stores the key and the chain in one PEM file
		cert, err := tls.X509KeyPair(data, data)
		if err != nil || len(cert.Certificate) == 0 {
			continue
		}
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		if err != nil {
			continue
		}
		results = append(results, newInfo(domain, leaf))
	}

	return results, nil
}
