package main

import (
	"testing"

	"github.com/foxzi/fittrack/internal/models"
)

func TestParseExercise(t *testing.T) {
	tests := []struct {
		input   string
		want    models.Exercise
		wantErr bool
	}{
		{input: "Squat:legs:100x5x5", want: models.Exercise{Name: "Squat", MuscleGroup: "legs", Weight: 100, Sets: 5, Reps: 5}},
		{input: "Bench Press:chest:82.5X3X8", want: models.Exercise{Name: "Bench Press", MuscleGroup: "chest", Weight: 82.5, Sets: 3, Reps: 8}},
		{input: "Plank::0x3x1", want: models.Exercise{Name: "Plank", Sets: 3, Reps: 1}},
		{input: "Squat:legs", wantErr: true},
		{input: ":legs:100x5x5", wantErr: true},
		{input: "Squat:legs:100x5", wantErr: true},
		{input: "Squat:legs:heavyx5x5", wantErr: true},
		{input: "Squat:legs:-10x5x5", wantErr: true},
		{input: "Squat:legs:100x5x-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseExercise(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseExercise(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseExercise(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseExercise(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{`{"date":"2026-03-14","exercises":[]}`, 12, `{"date":"...`},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
