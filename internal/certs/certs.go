// Package certs provides the TLS material of the HTTPS API listener.
package certs

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"
)

// LoadCertificate loads a TLS server configuration from PEM files
func LoadCertificate(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Info describes a certificate
type Info struct {
	Domain    string // ACME domain, empty for a manual certificate
	Subject   string
	Issuer    string
	NotBefore time.Time
	NotAfter  time.Time
	DNSNames  []string
}

// DaysLeft returns whole days until expiry at now
func (i *Info) DaysLeft(now time.Time) int {
	return int(i.NotAfter.Sub(now).Hours() / 24)
}

// Status classifies the certificate for operators
func (i *Info) Status(now time.Time) string {
	switch days := i.DaysLeft(now); {
	case days < 0:
		return "EXPIRED"
	case days < 14:
		return "EXPIRING SOON"
	case days < 30:
		return "RENEWAL NEEDED"
	default:
		return "OK"
	}
}

// Inspect reads the first certificate of a PEM file
func Inspect(certFile string) (*Info, error) {
	data, err := os.ReadFile(certFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	return newInfo("", cert), nil
}

func newInfo(domain string, cert *x509.Certificate) *Info {
	return &Info{
		Domain:    domain,
		Subject:   cert.Subject.CommonName,
		Issuer:    cert.Issuer.CommonName,
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		DNSNames:  cert.DNSNames,
	}
}
