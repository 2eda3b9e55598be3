package models

import (
	"fmt"
	"time"
)

// DateLayout is the layout of training dates
const DateLayout = "2006-01-02"

// Training is a single logged training session
type Training struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Date      string     `json:"date"` // YYYY-MM-DD
	Notes     string     `json:"notes,omitempty"`
	Exercises []Exercise `json:"exercises"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Exercise is one exercise performed during a training
type Exercise struct {
	Name        string  `json:"name"`
	MuscleGroup string  `json:"muscle_group"`
	Weight      float64 `json:"weight"` // kg
	Sets        int     `json:"sets"`
	Reps        int     `json:"reps"`
}

// Volume returns the total weight moved in the exercise
func (e Exercise) Volume() float64 {
	return e.Weight * float64(e.Sets) * float64(e.Reps)
}

// Validate checks the training fields supplied by a client
func (t *Training) Validate() error {
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	if len(t.Exercises) == 0 {
		return fmt.Errorf("at least one exercise is required")
	}
	for i, e := range t.Exercises {
		if e.Name == "" {
			return fmt.Errorf("exercises[%d].name is required", i)
		}
		if e.Weight < 0 || e.Sets < 0 || e.Reps < 0 {
			return fmt.Errorf("exercises[%d] must not contain negative values", i)
		}
	}
	return nil
}

// MuscleGroupShare is the number of exercises performed per muscle group
type MuscleGroupShare struct {
	MuscleGroup string `json:"muscle_group"`
	Count       int    `json:"count"`
}

// SessionWeight is the total weight moved in one training
type SessionWeight struct {
	TrainingID  string  `json:"training_id"`
	Date        string  `json:"date"`
	TotalWeight float64 `json:"total_weight"`
}

// ProgressPoint is the heaviest weight used for an exercise on a date
type ProgressPoint struct {
	Date      string  `json:"date"`
	MaxWeight float64 `json:"max_weight"`
}
