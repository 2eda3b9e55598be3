package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foxzi/fittrack/internal/models"
)

type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// MuscleGroups returns how many exercises the user performed per muscle group
func (r *StatsRepository) MuscleGroups(ctx context.Context, userID string) ([]models.MuscleGroupShare, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT CASE WHEN COALESCE(e.muscle_group, '') = '' THEN 'other' ELSE e.muscle_group END as grp,
			COUNT(*) as cnt
		FROM training_exercises e
		JOIN trainings t ON t.id = e.training_id
		WHERE t.user_id = ?
		GROUP BY grp
		ORDER BY cnt DESC, grp`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query muscle groups: %w", err)
	}
	defer rows.Close()

	shares := []models.MuscleGroupShare{}
	for rows.Next() {
		var s models.MuscleGroupShare
		if err := rows.Scan(&s.MuscleGroup, &s.Count); err != nil {
			return nil, err
		}
		shares = append(shares, s)
	}
	return shares, rows.Err()
}

// TotalWeight returns the weight moved in each training of the user
func (r *StatsRepository) TotalWeight(ctx context.Context, userID string) ([]models.SessionWeight, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.id, t.date, COALESCE(SUM(e.weight * e.sets * e.reps), 0) as total
		FROM trainings t
		LEFT JOIN training_exercises e ON e.training_id = t.id
		WHERE t.user_id = ?
		GROUP BY t.id, t.date, t.created_at
		ORDER BY t.date, t.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query total weight: %w", err)
	}
	defer rows.Close()

	sessions := []models.SessionWeight{}
	for rows.Next() {
		var s models.SessionWeight
		if err := rows.Scan(&s.TrainingID, &s.Date, &s.TotalWeight); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Progress returns the heaviest weight used for an exercise per training date
func (r *StatsRepository) Progress(ctx context.Context, userID, exercise string) ([]models.ProgressPoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.date, MAX(e.weight)
		FROM training_exercises e
		JOIN trainings t ON t.id = e.training_id
		WHERE t.user_id = ? AND e.name = ? COLLATE NOCASE
		GROUP BY t.date
		ORDER BY t.date`, userID, exercise)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	points := []models.ProgressPoint{}
	for rows.Next() {
		var p models.ProgressPoint
		if err := rows.Scan(&p.Date, &p.MaxWeight); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
