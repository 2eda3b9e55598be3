package models

import "time"

// UnknownUsername is stored when the flagged user can no longer be resolved
const UnknownUsername = "Unknown"

// MonitoredUser is a user flagged for suspicious activity
type MonitoredUser struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"` // snapshot at detection time
	Reason     string    `json:"reason"`
	DetectedAt time.Time `json:"detected_at"`
}
