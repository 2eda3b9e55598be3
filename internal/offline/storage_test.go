package offline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func setupStorage(t *testing.T) (*BoltStorage, *clockwork.FakeClock, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "offline.db")
	clock := clockwork.NewFakeClockAt(testNow)
	s, err := NewBoltStorage(path, clock)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock, path
}

func TestEnqueueListOrder(t *testing.T) {
	s, clock, _ := setupStorage(t)
	ctx := context.Background()

	first, err := s.Enqueue(ctx, "POST", "/api/trainings", []byte(`{"date":"2026-03-14"}`))
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	// Same instant: insertion order must win
	second, _ := s.Enqueue(ctx, "PUT", "/api/users/me/metrics", []byte(`{"weight_kg":80}`))
	clock.Advance(time.Second)
	third, _ := s.Enqueue(ctx, "DELETE", "/api/trainings/abc", nil)

	ops, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{first.ID, second.ID, third.ID}
	if len(ops) != len(want) {
		t.Fatalf("expected %d operations, got %d", len(want), len(ops))
	}
	for i, op := range ops {
		if op.ID != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, op.ID, want[i])
		}
	}
	if !ops[0].Timestamp.Equal(testNow) || !ops[2].Timestamp.Equal(testNow.Add(time.Second)) {
		t.Errorf("unexpected timestamps: %v, %v", ops[0].Timestamp, ops[2].Timestamp)
	}

	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3", n, err)
	}
}

func TestListOrderIndependentOfInsertion(t *testing.T) {
	s, clock, _ := setupStorage(t)
	ctx := context.Background()

	clock.Advance(time.Minute)
	late, _ := s.Enqueue(ctx, "POST", "/api/trainings", nil)

	// The clock stepped back: the later write carries the earlier timestamp
	clock.Advance(-30 * time.Second)
	early, _ := s.Enqueue(ctx, "POST", "/api/trainings", nil)

	ops, _ := s.List(ctx)
	if len(ops) != 2 || ops[0].ID != early.ID || ops[1].ID != late.ID {
		t.Fatalf("operations not ordered by timestamp: %+v", ops)
	}
}

func TestRemove(t *testing.T) {
	s, _, _ := setupStorage(t)
	ctx := context.Background()

	a, _ := s.Enqueue(ctx, "POST", "/a", nil)
	b, _ := s.Enqueue(ctx, "POST", "/b", nil)
	c, _ := s.Enqueue(ctx, "POST", "/c", nil)

	if err := s.Remove(ctx, b.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove(ctx, b.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove() error = %v, want ErrNotFound", err)
	}

	ops, _ := s.List(ctx)
	if len(ops) != 2 || ops[0].ID != a.ID || ops[1].ID != c.ID {
		t.Fatalf("unexpected operations after remove: %+v", ops)
	}
}

func TestReopenPreservesQueue(t *testing.T) {
	s, clock, path := setupStorage(t)
	ctx := context.Background()

	var enqueued []*Operation
	for i, endpoint := range []string{"/api/trainings", "/api/users/me/metrics", "/api/trainings/x"} {
		op, err := s.Enqueue(ctx, "POST", endpoint, []byte(fmt.Sprintf(`{"n":%d}`, i)))
		if err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
		enqueued = append(enqueued, op)
		clock.Advance(time.Millisecond)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewBoltStorage(path, clock)
	if err != nil {
		t.Fatalf("failed to reopen storage: %v", err)
	}
	defer reopened.Close()

	ops, err := reopened.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(ops) != len(enqueued) {
		t.Fatalf("expected %d operations, got %d", len(enqueued), len(ops))
	}
	for i, op := range ops {
		want := enqueued[i]
		if op.ID != want.ID || op.Method != want.Method || op.Endpoint != want.Endpoint ||
			string(op.Body) != string(want.Body) || !op.Timestamp.Equal(want.Timestamp) {
			t.Errorf("ops[%d] = %+v, want %+v", i, op, want)
		}
	}
}

func TestBodyEncoding(t *testing.T) {
	tests := []struct {
		name     string
		payload  []byte
		wantText bool
	}{
		{"empty", nil, false},
		{"json object", []byte(`{"weight_kg":80.5}`), false},
		{"json array", []byte(`[1,2,3]`), false},
		{"plain text", []byte("weight=80.5"), true},
	}

	s, _, _ := setupStorage(t)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := s.Enqueue(ctx, "POST", "/x", tt.payload)
			if err != nil {
				t.Fatalf("Enqueue() error = %v", err)
			}
			if op.BodyText != tt.wantText {
				t.Errorf("BodyText = %v, want %v", op.BodyText, tt.wantText)
			}
			got, err := op.Payload()
			if err != nil {
				t.Fatalf("Payload() error = %v", err)
			}
			if string(got) != string(tt.payload) {
				t.Errorf("Payload() = %q, want %q", got, tt.payload)
			}
		})
	}
}

func TestSnapshots(t *testing.T) {
	s, _, _ := setupStorage(t)

	var missing []string
	savedAt, err := s.LoadSnapshot("trainings", &missing)
	if err != nil || !savedAt.IsZero() {
		t.Fatalf("LoadSnapshot() on empty store = %v, %v", savedAt, err)
	}

	if err := s.SaveSnapshot("trainings", []string{"a", "b"}); err != nil {
		t.Fatalf("SaveSnapshot() error = %v", err)
	}

	var got []string
	savedAt, err = s.LoadSnapshot("trainings", &got)
	if err != nil {
		t.Fatalf("LoadSnapshot() error = %v", err)
	}
	if !savedAt.Equal(testNow) {
		t.Errorf("savedAt = %v, want %v", savedAt, testNow)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("snapshot = %v", got)
	}
}

func TestToken(t *testing.T) {
	s, _, _ := setupStorage(t)

	if token, err := s.Token(); err != nil || token != "" {
		t.Fatalf("Token() on empty store = %q, %v", token, err)
	}
	if err := s.SaveToken("abc.def.ghi"); err != nil {
		t.Fatalf("SaveToken() error = %v", err)
	}
	if token, _ := s.Token(); token != "abc.def.ghi" {
		t.Errorf("Token() = %q", token)
	}
	if err := s.SaveToken(""); err != nil {
		t.Fatalf("SaveToken(\"\") error = %v", err)
	}
	if token, _ := s.Token(); token != "" {
		t.Errorf("Token() after logout = %q", token)
	}
}
