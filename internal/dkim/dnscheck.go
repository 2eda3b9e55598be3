package dkim

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
)

var (
	ErrInvalidDomain   = errors.New("invalid domain name")
	ErrInvalidSelector = errors.New("invalid selector")
)

var (
	domainRegex   = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)
	selectorRegex = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// Status of a single DNS check
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusError    Status = "error"
	StatusNotFound Status = "not_found"
)

// Resolver looks up TXT records. *net.Resolver satisfies it.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// CheckResult is the outcome of one record lookup
type CheckResult struct {
	Type    string
	Name    string
	Status  Status
	Value   string
	Message string
}

// ValidateDomain checks domain name syntax (RFC 1035)
func ValidateDomain(domain string) error {
	if domain == "" || len(domain) > 253 || !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}
	return nil
}

// ValidateSelector checks that selector is a single DNS label
func ValidateSelector(selector string) error {
	if !selectorRegex.MatchString(selector) {
		return ErrInvalidSelector
	}
	return nil
}

// CheckDomain verifies the records receivers consult for notification mail
// from domain: the DKIM key under selector, SPF and DMARC. When key is set
// the published DKIM key must match it.
func CheckDomain(ctx context.Context, r Resolver, domain, selector string, key crypto.Signer) ([]CheckResult, error) {
	if err := ValidateDomain(domain); err != nil {
		return nil, err
	}
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}
	if r == nil {
		r = net.DefaultResolver
	}

	var expected string
	if key != nil {
		record, err := DNSRecord(key)
		if err != nil {
			return nil, err
		}
		expected = parseTags(record)["p"]
	}

	return []CheckResult{
		checkKey(ctx, r, DNSName(selector, domain), expected),
		checkSPF(ctx, r, domain),
		checkDMARC(ctx, r, "_dmarc."+domain),
	}, nil
}

func checkKey(ctx context.Context, r Resolver, name, expected string) CheckResult {
	result := CheckResult{Type: "DKIM", Name: name}

	record, ok := lookup(ctx, r, &result)
	if !ok {
		return result
	}
	result.Value = truncate(record, 80)

	tags := parseTags(record)
	if tags["v"] != "DKIM1" {
		result.Status = StatusWarning
		result.Message = "TXT record is not a DKIM key record"
		return result
	}
	published := strings.Join(strings.Fields(tags["p"]), "")
	switch {
	case published == "":
		result.Status = StatusError
		result.Message = "key has been revoked (empty p=)"
	case expected != "" && published != expected:
		result.Status = StatusError
		result.Message = "published key does not match the signing key"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%s key published", keyType(tags))
	}
	return result
}

func checkSPF(ctx context.Context, r Resolver, domain string) CheckResult {
	result := CheckResult{Type: "SPF", Name: domain}

	txts, err := r.LookupTXT(ctx, domain)
	if err != nil {
		lookupFailed(&result, err)
		return result
	}
	for _, txt := range txts {
		if !strings.HasPrefix(txt, "v=spf1") {
			continue
		}
		result.Value = truncate(txt, 80)
		result.Status = StatusOK
		switch {
		case strings.Contains(txt, "+all"):
			result.Status = StatusWarning
			result.Message = "+all allows any sender"
		case strings.Contains(txt, "-all"):
			result.Message = "strict policy (-all)"
		case strings.Contains(txt, "~all"):
			result.Message = "soft fail (~all)"
		}
		return result
	}
	result.Status = StatusNotFound
	result.Message = "no SPF record"
	return result
}

func checkDMARC(ctx context.Context, r Resolver, name string) CheckResult {
	result := CheckResult{Type: "DMARC", Name: name}

	record, ok := lookup(ctx, r, &result)
	if !ok {
		return result
	}
	result.Value = truncate(record, 80)

	tags := parseTags(record)
	if tags["v"] != "DMARC1" {
		result.Status = StatusWarning
		result.Message = "TXT record is not a DMARC record"
		return result
	}
	result.Status = StatusOK
	switch tags["p"] {
	case "reject", "quarantine":
		result.Message = "policy " + tags["p"]
	case "none":
		result.Status = StatusWarning
		result.Message = "policy none (monitoring only)"
	default:
		result.Status = StatusWarning
		result.Message = "missing policy tag"
	}
	return result
}

// lookup fetches a TXT record split across strings and joins it
func lookup(ctx context.Context, r Resolver, result *CheckResult) (string, bool) {
	txts, err := r.LookupTXT(ctx, result.Name)
	if err != nil {
		lookupFailed(result, err)
		return "", false
	}
	if len(txts) == 0 {
		result.Status = StatusNotFound
		result.Message = "no TXT record"
		return "", false
	}
	return strings.Join(txts, ""), true
}

func lookupFailed(result *CheckResult, err error) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		result.Status = StatusNotFound
		result.Message = "no TXT record"
		return
	}
	result.Status = StatusError
	result.Message = fmt.Sprintf("lookup failed: %v", err)
}

// parseTags splits a tag=value; list as used by DKIM and DMARC records
func parseTags(record string) map[string]string {
	tags := make(map[string]string)
	for _, part := range strings.Split(record, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		tags[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return tags
}

func keyType(tags map[string]string) string {
	if k := tags["k"]; k != "" {
		return k
	}
	return "rsa"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
