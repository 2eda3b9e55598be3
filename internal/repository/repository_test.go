package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/foxzi/fittrack/internal/db"
	"github.com/foxzi/fittrack/internal/models"
)

// setupTestDB creates an in-memory SQLite database with all migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	d, err := db.New(db.MemoryPath)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := d.Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	return d.DB
}

func createTestUser(t *testing.T, sqlDB *sql.DB, username string) *models.User {
	t.Helper()

	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	if err := NewUserRepository(sqlDB).Create(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}
