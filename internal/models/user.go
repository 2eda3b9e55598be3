package models

import "time"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserMetrics holds body measurements of a user
type UserMetrics struct {
	UserID    string    `json:"user_id"`
	HeightCM  float64   `json:"height_cm"`
	WeightKG  float64   `json:"weight_kg"`
	UpdatedAt time.Time `json:"updated_at"`
}
