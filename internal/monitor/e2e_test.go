package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/foxzi/fittrack/internal/api"
	"github.com/foxzi/fittrack/internal/auth"
	"github.com/foxzi/fittrack/internal/config"
	"github.com/foxzi/fittrack/internal/models"
)

func TestBurstOfRequestsIsFlaggedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := &models.User{Username: "sprinter", Email: "sprinter@example.com", PasswordHash: "x", Role: models.RoleUser}
	if err := env.users.Create(ctx, u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	tokens := auth.NewTokens("test-secret-0123456789", time.Hour, env.clock)
	token, _, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	server := api.NewServer(api.Deps{
		Users:     env.users,
		Trainings: env.trainings,
		Activity:  env.activity,
		Tokens:    tokens,
		Clock:     env.clock,
	}, &config.ServerConfig{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	body, _ := json.Marshal(api.TrainingRequest{
		Date:      "2026-03-10",
		Exercises: []models.Exercise{{Name: "Burpee", MuscleGroup: "full body", Sets: 1, Reps: 10}},
	})

	// 11 POSTs spread over 40 seconds
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/trainings", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: status = %d, body %s", i, rec.Code, rec.Body.String())
		}
		if i < 10 {
			env.clock.Advance(4 * time.Second)
		}
	}
	env.clock.Advance(5 * time.Second)

	result, err := env.monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(result.Flagged) != 1 {
		t.Fatalf("expected 1 flagged user, got %d", len(result.Flagged))
	}
	if got := result.Flagged[0]; got.UserID != u.ID || got.Username != "sprinter" || got.Reason != "High activity: 11 actions in 1 min" {
		t.Errorf("unexpected record: %+v", got)
	}

	// Next tick 10 seconds later, no new actions
	env.clock.Advance(10 * time.Second)
	result, err = env.monitor.Scan(ctx)
	if err != nil {
		t.Fatalf("second Scan() error = %v", err)
	}
	if len(result.Flagged) != 0 || result.Skipped != 1 {
		t.Errorf("second scan must not flag again: %+v", result)
	}

	list, _ := env.monitored.List(ctx)
	if len(list) != 1 {
		t.Errorf("expected 1 monitored record, got %d", len(list))
	}
}
