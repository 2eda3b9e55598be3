// Package email holds address helpers shared by registration and notifications.
package email

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidAddress is returned for anything that is not a bare user@domain address
var ErrInvalidAddress = errors.New("invalid email address")

// Normalize validates a bare address and lower-cases it.
// Display names ("Alice <alice@example.com>") are rejected.
func Normalize(address string) (string, error) {
	address = strings.TrimSpace(address)
	addr, err := mail.ParseAddress(address)
	if err != nil || addr.Name != "" || addr.Address != address {
		return "", ErrInvalidAddress
	}
	if Domain(addr.Address) == "" {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(addr.Address), nil
}

// Domain extracts the lower-cased domain part of an address.
// Returns empty string if the address is invalid.
func Domain(address string) string {
	if addr, err := mail.ParseAddress(address); err == nil {
		address = addr.Address
	}
	at := strings.LastIndex(address, "@")
	if at <= 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}

// DomainOr returns the domain of address, or def when there is none
func DomainOr(address, def string) string {
	if domain := Domain(address); domain != "" {
		return domain
	}
	return def
}
