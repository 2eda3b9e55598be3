package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/foxzi/fittrack/internal/models"
)

func TestActivityRepository_AddAndList(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	entries := []models.ActivityLogEntry{
		{UserID: "u1", Action: models.ActionCreate, EntityType: "training", EntityID: "t1", Details: json.RawMessage(`{"date":"2026-03-10"}`), Timestamp: base},
		{UserID: "u1", Action: models.ActionRead, EntityType: "stats", Timestamp: base.Add(time.Minute)},
		{UserID: "u2", Action: models.ActionDelete, EntityType: "training", EntityID: "t9", Timestamp: base.Add(2 * time.Minute)},
		{UserID: "u1", Action: models.ActionUpdate, EntityType: "metrics", Timestamp: base.Add(24 * time.Hour)},
	}
	for i := range entries {
		if err := repo.Add(ctx, &entries[i]); err != nil {
			t.Fatalf("Add: %v", err)
		}
		if entries[i].ID == 0 {
			t.Errorf("entry %d: ID not assigned", i)
		}
	}

	all, err := repo.List(ctx, models.ActivityLogFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Timestamp.After(all[i-1].Timestamp) {
			t.Errorf("entries not ordered newest first at %d", i)
		}
	}
	last := all[len(all)-1]
	if string(last.Details) != `{"date":"2026-03-10"}` {
		t.Errorf("details = %s", last.Details)
	}
	if last.Action != models.ActionCreate || last.EntityID != "t1" {
		t.Errorf("unexpected oldest entry: %+v", last)
	}
	if all[0].Details != nil {
		t.Errorf("expected nil details, got %s", all[0].Details)
	}

	start := base.Add(30 * time.Second)
	end := base.Add(time.Hour)

	tests := []struct {
		name   string
		filter models.ActivityLogFilter
		want   int
	}{
		{"by user", models.ActivityLogFilter{UserID: "u1"}, 3},
		{"by entity type", models.ActivityLogFilter{EntityType: "training"}, 2},
		{"user and type", models.ActivityLogFilter{UserID: "u1", EntityType: "training"}, 1},
		{"date range", models.ActivityLogFilter{StartDate: &start, EndDate: &end}, 2},
		{"start inclusive", models.ActivityLogFilter{StartDate: &base}, 4},
		{"limit", models.ActivityLogFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestActivityRepository_CountActionsSinceIsStrict(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	ctx := context.Background()
	since := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	add := func(userID string, ts time.Time) {
		t.Helper()
		e := &models.ActivityLogEntry{UserID: userID, Action: models.ActionRead, EntityType: "training", Timestamp: ts}
		if err := repo.Add(ctx, e); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	add("u1", since.Add(-time.Second))
	add("u1", since)
	add("u1", since.Add(time.Millisecond))
	add("u1", since.Add(30*time.Second))
	add("u2", since.Add(10*time.Second))

	counts, err := repo.CountActionsSince(ctx, since)
	if err != nil {
		t.Fatalf("CountActionsSince: %v", err)
	}

	got := map[string]int{}
	for _, c := range counts {
		got[c.UserID] = c.Count
	}
	if got["u1"] != 2 {
		t.Errorf("u1 count = %d, want 2", got["u1"])
	}
	if got["u2"] != 1 {
		t.Errorf("u2 count = %d, want 1", got["u2"])
	}
}

func TestActivityRepository_NonUTCTimestamps(t *testing.T) {
	repo := NewActivityRepository(setupTestDB(t))
	ctx := context.Background()
	zone := time.FixedZone("UTC+3", 3*60*60)
	since := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	e := &models.ActivityLogEntry{UserID: "u1", Action: models.ActionRead, EntityType: "stats", Timestamp: since.Add(time.Second).In(zone)}
	if err := repo.Add(ctx, e); err != nil {
		t.Fatalf("Add: %v", err)
	}

	counts, err := repo.CountActionsSince(ctx, since.In(zone))
	if err != nil {
		t.Fatalf("CountActionsSince: %v", err)
	}
	if len(counts) != 1 || counts[0].Count != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}
