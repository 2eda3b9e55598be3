package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/fittrack/internal/models"
)

type TrainingRepository struct {
	db *sql.DB
}

func NewTrainingRepository(db *sql.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

// Create creates a training together with its exercises. A client may
// choose the ID; ErrConflict is returned if it is already taken.
func (r *TrainingRepository) Create(ctx context.Context, t *models.Training) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now().UTC()
	t.UpdatedAt = t.CreatedAt

	res, err := tx.ExecContext(ctx, `
		INSERT INTO trainings (id, user_id, date, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		t.ID, t.UserID, t.Date, t.Notes, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create training: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}

	if err := insertExercises(ctx, tx, t.ID, t.Exercises); err != nil {
		return err
	}

	return tx.Commit()
}

// Update replaces date, notes and exercises of an existing training.
// Returns ErrNotFound if the training does not belong to the user.
func (r *TrainingRepository) Update(ctx context.Context, t *models.Training) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	t.UpdatedAt = time.Now().UTC()

	res, err := tx.ExecContext(ctx, `
		UPDATE trainings SET date = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Date, t.Notes, t.UpdatedAt, t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update training: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM training_exercises WHERE training_id = ?", t.ID); err != nil {
		return fmt.Errorf("failed to replace exercises: %w", err)
	}
	if err := insertExercises(ctx, tx, t.ID, t.Exercises); err != nil {
		return err
	}

	return tx.Commit()
}

func insertExercises(ctx context.Context, tx *sql.Tx, trainingID string, exercises []models.Exercise) error {
	for i, e := range exercises {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO training_exercises (training_id, position, name, muscle_group, weight, sets, reps)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			trainingID, i, e.Name, e.MuscleGroup, e.Weight, e.Sets, e.Reps,
		)
		if err != nil {
			return fmt.Errorf("failed to insert exercise: %w", err)
		}
	}
	return nil
}

// GetByID returns a training of the user by ID
func (r *TrainingRepository) GetByID(ctx context.Context, userID, id string) (*models.Training, error) {
	t := &models.Training{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, COALESCE(notes, ''), created_at, updated_at
		FROM trainings WHERE id = ? AND user_id = ?`, id, userID,
	).Scan(&t.ID, &t.UserID, &t.Date, &t.Notes, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	byTraining, err := r.exercises(ctx, "training_id = ?", id)
	if err != nil {
		return nil, err
	}
	t.Exercises = byTraining[id]
	if t.Exercises == nil {
		t.Exercises = []models.Exercise{}
	}
	return t, nil
}

// ListByUser returns all trainings of a user ordered by date
func (r *TrainingRepository) ListByUser(ctx context.Context, userID string) ([]models.Training, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, date, COALESCE(notes, ''), created_at, updated_at
		FROM trainings WHERE user_id = ? ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	defer rows.Close()

	trainings := []models.Training{}
	for rows.Next() {
		var t models.Training
		if err := rows.Scan(&t.ID, &t.UserID, &t.Date, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		trainings = append(trainings, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byTraining, err := r.exercises(ctx, "training_id IN (SELECT id FROM trainings WHERE user_id = ?)", userID)
	if err != nil {
		return nil, err
	}
	for i := range trainings {
		trainings[i].Exercises = byTraining[trainings[i].ID]
		if trainings[i].Exercises == nil {
			trainings[i].Exercises = []models.Exercise{}
		}
	}
	return trainings, nil
}

func (r *TrainingRepository) exercises(ctx context.Context, where string, arg any) (map[string][]models.Exercise, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT training_id, name, COALESCE(muscle_group, ''), weight, sets, reps
		FROM training_exercises WHERE `+where+` ORDER BY training_id, position`, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to load exercises: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.Exercise)
	for rows.Next() {
		var (
			trainingID string
			e          models.Exercise
		)
		if err := rows.Scan(&trainingID, &e.Name, &e.MuscleGroup, &e.Weight, &e.Sets, &e.Reps); err != nil {
			return nil, err
		}
		result[trainingID] = append(result[trainingID], e)
	}
	return result, rows.Err()
}

// Delete deletes a training of the user. Returns ErrNotFound if it does not exist.
func (r *TrainingRepository) Delete(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM trainings WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete training: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
