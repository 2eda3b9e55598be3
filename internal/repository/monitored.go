package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/fittrack/internal/models"
)

type MonitoredRepository struct {
	db *sql.DB
}

func NewMonitoredRepository(db *sql.DB) *MonitoredRepository {
	return &MonitoredRepository{db: db}
}

// Exists reports whether the user already has a monitoring record
func (r *MonitoredRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM monitored_users WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check monitored user: %w", err)
	}
	return n > 0, nil
}

// Insert stores a monitoring record unless the user already has one.
// It reports whether a row was created.
func (r *MonitoredRepository) Insert(ctx context.Context, m *models.MonitoredUser) (bool, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.DetectedAt.IsZero() {
		m.DetectedAt = time.Now()
	}
	m.DetectedAt = m.DetectedAt.UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO monitored_users (id, user_id, username, reason, detected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		m.ID, m.UserID, m.Username, m.Reason, m.DetectedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert monitored user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert monitored user: %w", err)
	}
	return n == 1, nil
}

// GetByID returns a monitoring record by ID
func (r *MonitoredRepository) GetByID(ctx context.Context, id string) (*models.MonitoredUser, error) {
	m := &models.MonitoredUser{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, username, reason, detected_at
		FROM monitored_users WHERE id = ?`, id,
	).Scan(&m.ID, &m.UserID, &m.Username, &m.Reason, &m.DetectedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// List returns all monitoring records, most recent first
func (r *MonitoredRepository) List(ctx context.Context) ([]models.MonitoredUser, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, username, reason, detected_at
		FROM monitored_users ORDER BY detected_at DESC, username`)
	if err != nil {
		return nil, fmt.Errorf("failed to list monitored users: %w", err)
	}
	defer rows.Close()

	users := []models.MonitoredUser{}
	for rows.Next() {
		var m models.MonitoredUser
		if err := rows.Scan(&m.ID, &m.UserID, &m.Username, &m.Reason, &m.DetectedAt); err != nil {
			return nil, err
		}
		users = append(users, m)
	}
	return users, rows.Err()
}

// Count returns the number of monitored users
func (r *MonitoredRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM monitored_users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count monitored users: %w", err)
	}
	return n, nil
}

// Delete removes a monitoring record. Returns ErrNotFound if it does not exist.
func (r *MonitoredRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM monitored_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete monitored user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete monitored user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
