// Package dkim signs outgoing notification mail.
package dkim

import (
	"bytes"
	"crypto"
	"fmt"

	"github.com/emersion/go-msgauth/dkim"
)

// signedHeaders are the notification headers covered by the signature
var signedHeaders = []string{"From", "To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"}

// Signer adds a DKIM-Signature header to messages
type Signer struct {
	key      crypto.Signer
	domain   string
	selector string
}

// NewSigner creates a new DKIM signer
func NewSigner(key crypto.Signer, domain, selector string) *Signer {
	return &Signer{
		key:      key,
		domain:   domain,
		selector: selector,
	}
}

// NewSignerFromFile creates a new DKIM signer from a key file
func NewSignerFromFile(keyFile, domain, selector string) (*Signer, error) {
	key, err := LoadPrivateKey(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load DKIM key: %w", err)
	}
	return NewSigner(key, domain, selector), nil
}

// Sign returns message with a DKIM-Signature header prepended
func (s *Signer) Sign(message []byte) ([]byte, error) {
	options := &dkim.SignOptions{
		Domain:                 s.domain,
		Selector:               s.selector,
		Signer:                 s.key,
		Hash:                   crypto.SHA256,
		HeaderCanonicalization: dkim.CanonicalizationRelaxed,
		BodyCanonicalization:   dkim.CanonicalizationRelaxed,
		HeaderKeys:             signedHeaders,
	}

	var signed bytes.Buffer
	if err := dkim.Sign(&signed, bytes.NewReader(message), options); err != nil {
		return nil, fmt.Errorf("failed to sign message: %w", err)
	}
	return signed.Bytes(), nil
}

// Domain returns the signing domain
func (s *Signer) Domain() string {
	return s.domain
}

// Selector returns the DKIM selector
func (s *Signer) Selector() string {
	return s.selector
}
