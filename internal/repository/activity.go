package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/foxzi/fittrack/internal/models"
)

type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Add appends an activity log entry
func (r *ActivityRepository) Add(ctx context.Context, entry *models.ActivityLogEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	var details any
	if len(entry.Details) > 0 {
		details = string(entry.Details)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.UserID, string(entry.Action), entry.EntityType, entry.EntityID, details, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to add activity log entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List returns activity log entries, newest first
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityLogFilter) ([]models.ActivityLogEntry, error) {
	query := `
		SELECT id, user_id, action, entity_type, COALESCE(entity_id, '') as entity_id, details, created_at
		FROM activity_logs WHERE 1=1`
	args := []any{}

	if filter.UserID != "" {
		query += " AND user_id = ?"
		args = append(args, filter.UserID)
	}
	if filter.EntityType != "" {
		query += " AND entity_type = ?"
		args = append(args, filter.EntityType)
	}
	if filter.StartDate != nil {
		query += " AND created_at >= ?"
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		query += " AND created_at < ?"
		args = append(args, filter.EndDate.UTC())
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	entries := []models.ActivityLogEntry{}
	for rows.Next() {
		var (
			e       models.ActivityLogEntry
			action  string
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &action, &e.EntityType, &e.EntityID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan activity log entry: %w", err)
		}
		e.Action = models.Action(action)
		if len(details) > 0 {
			e.Details = append([]byte(nil), details...)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountActionsSince returns per-user action counts for entries strictly after since
func (r *ActivityRepository) CountActionsSince(ctx context.Context, since time.Time) ([]models.UserActionCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, COUNT(*) as cnt
		FROM activity_logs
		WHERE created_at > ?
		GROUP BY user_id
		ORDER BY user_id`, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to count actions: %w", err)
	}
	defer rows.Close()

	counts := []models.UserActionCount{}
	for rows.Next() {
		var c models.UserActionCount
		if err := rows.Scan(&c.UserID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
