// Package repository provides SQLite-backed persistence for the server.
package repository

import "errors"

var (
	// ErrNotFound is returned by mutations that target a missing row
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a client-chosen ID is already taken
	ErrConflict = errors.New("already exists")
)
