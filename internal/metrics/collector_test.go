package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

type fakeMonitored struct {
	n   int
	err error
}

func (f *fakeMonitored) Count(ctx context.Context) (int, error) {
	return f.n, f.err
}

func TestCollectorCollect(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New()

	path := filepath.Join(t.TempDir(), "fittrack.db")
	if err := os.WriteFile(path, make([]byte, 1024), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := NewCollector(m, &fakeMonitored{n: 7}, path, 0, logger)
	c.Collect(context.Background())

	if v := gaugeValue(t, m.MonitoredUsers); v != 7 {
		t.Errorf("monitored gauge = %f, want 7", v)
	}
	if v := gaugeValue(t, m.StorageUsedBytes); v != 1024 {
		t.Errorf("storage gauge = %f, want 1024", v)
	}
	if v := gaugeValue(t, m.Goroutines); v <= 0 {
		t.Errorf("goroutines gauge = %f, want > 0", v)
	}
}

func TestCollectorKeepsGaugeOnError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New()
	m.MonitoredUsers.Set(2)

	c := NewCollector(m, &fakeMonitored{err: errors.New("db closed")}, "", 0, logger)
	c.Collect(context.Background())

	if v := gaugeValue(t, m.MonitoredUsers); v != 2 {
		t.Errorf("monitored gauge = %f, want 2", v)
	}
}

func TestCollectorStartStop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := NewCollector(New(), nil, "", 0, logger)
	c.Start(context.Background())
	c.Stop()
}
