package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/fittrack/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	u.ID = uuid.New().String()
	u.CreatedAt = time.Now().UTC()
	if u.Role == "" {
		u.Role = models.RoleUser
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID returns a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUsername returns a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByEmail returns a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users WHERE `+column+` = ?`, value,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns all users
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at
		FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetMetrics returns the body metrics of a user
func (r *UserRepository) GetMetrics(ctx context.Context, userID string) (*models.UserMetrics, error) {
	m := &models.UserMetrics{}
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, COALESCE(height_cm, 0), COALESCE(weight_kg, 0), updated_at
		FROM user_metrics WHERE user_id = ?`, userID,
	).Scan(&m.UserID, &m.HeightCM, &m.WeightKG, &m.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// SetMetrics creates or replaces the body metrics of a user
func (r *UserRepository) SetMetrics(ctx context.Context, m *models.UserMetrics) error {
	m.UpdatedAt = time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_metrics (user_id, height_cm, weight_kg, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET height_cm = excluded.height_cm, weight_kg = excluded.weight_kg, updated_at = excluded.updated_at`,
		m.UserID, m.HeightCM, m.WeightKG, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to set user metrics: %w", err)
	}
	return nil
}
