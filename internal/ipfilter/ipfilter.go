// Package ipfilter restricts HTTP endpoints to an allow list of networks
package ipfilter

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// Filter is an allow list of networks. An empty filter allows every client.
type Filter struct {
	name   string
	nets   []*net.IPNet
	deny   http.HandlerFunc
	logger *slog.Logger
}

// New builds a filter from IPs and CIDRs. Invalid entries are logged and skipped.
// name identifies the protected surface in log lines.
func New(name string, entries []string, logger *slog.Logger) *Filter {
	f := &Filter{
		name:   name,
		nets:   parse(entries, logger),
		logger: logger,
		deny: func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Forbidden", http.StatusForbidden)
		},
	}

	if f.Enabled() {
		logger.Info("IP filtering enabled", "filter", name, "allowed_networks", len(f.nets))
	}
	return f
}

func parse(entries []string, logger *slog.Logger) []*net.IPNet {
	var nets []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if strings.Contains(entry, "/") {
			_, ipNet, err := net.ParseCIDR(entry)
			if err != nil {
				logger.Warn("invalid CIDR in allowed_ips", "cidr", entry, "error", err)
				continue
			}
			nets = append(nets, ipNet)
			continue
		}

		// Single IP becomes a /32 or /128
		ip := net.ParseIP(entry)
		if ip == nil {
			logger.Warn("invalid IP in allowed_ips", "ip", entry)
			continue
		}
		bits := 128
		if ip.To4() != nil {
			bits = 32
		}
		nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
	}
	return nets
}

// WithDenyHandler replaces the plain-text 403 response
func (f *Filter) WithDenyHandler(h http.HandlerFunc) *Filter {
	f.deny = h
	return f
}

// Enabled returns true if IP filtering is active
func (f *Filter) Enabled() bool {
	return len(f.nets) > 0
}

// Count returns the number of allowed networks
func (f *Filter) Count() int {
	return len(f.nets)
}

// Allows reports whether ip is permitted
func (f *Filter) Allows(ip net.IP) bool {
	if !f.Enabled() {
		return true
	}
	if ip == nil {
		return false
	}
	for _, ipNet := range f.nets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}

// AllowsAddr checks a host:port or bare IP
func (f *Filter) AllowsAddr(addr string) bool {
	return f.Allows(RemoteIP(addr))
}

// RemoteIP parses the host part of addr, which may lack a port
func RemoteIP(addr string) net.IP {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return net.ParseIP(addr)
	}
	return net.ParseIP(host)
}

// Middleware rejects clients outside the allow list.
// Proxy headers are not consulted here; mount chi's RealIP in front of it when running behind a proxy.
func (f *Filter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		ip := RemoteIP(r.RemoteAddr)
		if ip == nil {
			f.logger.Warn("could not parse client IP", "filter", f.name, "remote_addr", r.RemoteAddr)
			f.deny(w, r)
			return
		}

		if !f.Allows(ip) {
			f.logger.Warn("access denied by IP filter", "filter", f.name, "ip", ip.String(), "path", r.URL.Path)
			f.deny(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
