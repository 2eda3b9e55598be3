package models

import (
	"encoding/json"
	"time"
)

// Action is the kind of operation recorded in the activity log
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Valid reports whether a is one of the known actions
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// ActivityLogEntry is a single append-only activity log row
type ActivityLogEntry struct {
	ID         int64           `json:"id"`
	UserID     string          `json:"user_id"`
	Action     Action          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Details    json.RawMessage `json:"details,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ActivityLogFilter for filtering the activity log
type ActivityLogFilter struct {
	UserID     string
	EntityType string
	StartDate  *time.Time // inclusive
	EndDate    *time.Time // exclusive
	Limit      int
	Offset     int
}

// UserActionCount is the number of actions a user performed in a window
type UserActionCount struct {
	UserID string
	Count  int
}
