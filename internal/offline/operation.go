// Package offline persists API mutations made while the server is unreachable.
package offline

import (
	"encoding/json"
	"time"
)

// Operation is a queued API call waiting to be replayed
type Operation struct {
	ID        string          `json:"id"`
	Method    string          `json:"method"`
	Endpoint  string          `json:"endpoint"`
	Body      json.RawMessage `json:"body,omitempty"`
	BodyText  bool            `json:"body_text,omitempty"` // Body is a JSON string holding a non-JSON payload
	Timestamp time.Time       `json:"timestamp"`
}

// NewBody encodes a request payload for storage. JSON payloads are kept
// verbatim, anything else is stored as a JSON string.
func NewBody(payload []byte) (body json.RawMessage, text bool, err error) {
	if len(payload) == 0 {
		return nil, false, nil
	}
	if json.Valid(payload) {
		return json.RawMessage(append([]byte(nil), payload...)), false, nil
	}
	data, err := json.Marshal(string(payload))
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Payload returns the request body exactly as it was submitted
func (o *Operation) Payload() ([]byte, error) {
	if len(o.Body) == 0 {
		return nil, nil
	}
	if !o.BodyText {
		return o.Body, nil
	}
	var s string
	if err := json.Unmarshal(o.Body, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}
