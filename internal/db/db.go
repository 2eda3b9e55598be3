package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

type DB struct {
	*sql.DB
}

func New(path string) (*DB, error) {
	if path != MemoryPath {
		// Ensure directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{db}, nil
}

func (db *DB) Migrate() error {
	migrations := []string{
		migrationUsers,
		migrationTrainings,
		migrationTrainingExercises,
		migrationUserMetrics,
		migrationActivityLogs,
		migrationMonitoredUsers,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

const migrationUsers = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

const migrationTrainings = `
CREATE TABLE IF NOT EXISTS trainings (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    date TEXT NOT NULL,
    notes TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_trainings_user_date ON trainings(user_id, date);
`

const migrationTrainingExercises = `
CREATE TABLE IF NOT EXISTS training_exercises (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    training_id TEXT NOT NULL REFERENCES trainings(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    muscle_group TEXT,
    weight REAL NOT NULL DEFAULT 0,
    sets INTEGER NOT NULL DEFAULT 0,
    reps INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_training_exercises_training ON training_exercises(training_id);
`

const migrationUserMetrics = `
CREATE TABLE IF NOT EXISTS user_metrics (
    user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    height_cm REAL,
    weight_kg REAL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

// activity_logs and monitored_users keep rows of deleted users
const migrationActivityLogs = `
CREATE TABLE IF NOT EXISTS activity_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id TEXT NOT NULL,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id TEXT,
    details JSON,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_activity_logs_user ON activity_logs(user_id);
CREATE INDEX IF NOT EXISTS idx_activity_logs_created ON activity_logs(created_at);
`

const migrationMonitoredUsers = `
CREATE TABLE IF NOT EXISTS monitored_users (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL UNIQUE,
    username TEXT NOT NULL,
    reason TEXT NOT NULL,
    detected_at TIMESTAMP NOT NULL
);
`
