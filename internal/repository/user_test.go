package repository

import (
	"context"
	"testing"

	"github.com/foxzi/fittrack/internal/models"
)

func TestUserRepository(t *testing.T) {
	sqlDB := setupTestDB(t)
	repo := NewUserRepository(sqlDB)
	ctx := context.Background()

	u := createTestUser(t, sqlDB, "alice")
	if u.Role != models.RoleUser {
		t.Errorf("default role = %q", u.Role)
	}

	byName, err := repo.GetByUsername(ctx, "alice")
	if err != nil || byName == nil || byName.ID != u.ID {
		t.Fatalf("GetByUsername = %+v, %v", byName, err)
	}
	byEmail, err := repo.GetByEmail(ctx, "alice@example.com")
	if err != nil || byEmail == nil || byEmail.ID != u.ID {
		t.Fatalf("GetByEmail = %+v, %v", byEmail, err)
	}
	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("GetByID(missing) = %+v, %v", missing, err)
	}

	dup := &models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, dup); err == nil {
		t.Error("expected error for duplicate username")
	}

	users, err := repo.List(ctx)
	if err != nil || len(users) != 1 {
		t.Errorf("List = %d, %v", len(users), err)
	}
}

func TestUserRepository_Metrics(t *testing.T) {
	sqlDB := setupTestDB(t)
	repo := NewUserRepository(sqlDB)
	ctx := context.Background()
	u := createTestUser(t, sqlDB, "alice")

	m, err := repo.GetMetrics(ctx, u.ID)
	if err != nil || m != nil {
		t.Fatalf("GetMetrics before set = %+v, %v", m, err)
	}

	if err := repo.SetMetrics(ctx, &models.UserMetrics{UserID: u.ID, HeightCM: 180, WeightKG: 80}); err != nil {
		t.Fatalf("SetMetrics: %v", err)
	}
	if err := repo.SetMetrics(ctx, &models.UserMetrics{UserID: u.ID, HeightCM: 180, WeightKG: 78.5}); err != nil {
		t.Fatalf("SetMetrics: %v", err)
	}

	m, err = repo.GetMetrics(ctx, u.ID)
	if err != nil || m == nil {
		t.Fatalf("GetMetrics = %+v, %v", m, err)
	}
	if m.HeightCM != 180 || m.WeightKG != 78.5 {
		t.Errorf("unexpected metrics: %+v", m)
	}
}
