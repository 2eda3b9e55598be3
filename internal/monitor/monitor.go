// Package monitor detects bursts of user activity and flags the users involved.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/models"
)

// ActivityCounter counts activity log entries per user
type ActivityCounter interface {
	CountActionsSince(ctx context.Context, since time.Time) ([]models.UserActionCount, error)
}

// MonitoredStore persists monitored users
type MonitoredStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
	// Insert must ignore a second record for the same user and report false
	Insert(ctx context.Context, m *models.MonitoredUser) (bool, error)
}

// UserLookup resolves users by ID. It returns nil, nil for unknown users.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier is told about newly flagged users
type Notifier interface {
	UserFlagged(ctx context.Context, m *models.MonitoredUser) error
}

// Config contains monitor settings
type Config struct {
	ActionThreshold int           // users with more actions than this are flagged
	Window          time.Duration // trailing window actions are counted in
	PollInterval    time.Duration
}

// ScanResult summarizes one scan
type ScanResult struct {
	Candidates int                     // users over the threshold
	Flagged    []*models.MonitoredUser // records created by this scan
	Skipped    int                     // candidates already monitored
	Failed     int
}

// Monitor periodically scans the activity log for suspicious bursts
type Monitor struct {
	activity  ActivityCounter
	monitored MonitoredStore
	users     UserLookup
	notifier  Notifier
	clock     clockwork.Clock
	cfg       Config
	logger    *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a monitor. notifier may be nil.
func New(activity ActivityCounter, monitored MonitoredStore, users UserLookup, notifier Notifier, clock clockwork.Clock, cfg Config, logger *slog.Logger) *Monitor {
	if cfg.ActionThreshold <= 0 {
		cfg.ActionThreshold = 10
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Monitor{
		activity:  activity,
		monitored: monitored,
		users:     users,
		notifier:  notifier,
		clock:     clock,
		cfg:       cfg,
		logger:    logger.With("component", "monitor"),
		stopCh:    make(chan struct{}),
	}
}

// Start runs a scan on every poll interval until Stop is called or ctx is done
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting activity monitor",
		"threshold", m.cfg.ActionThreshold,
		"window", m.cfg.Window,
		"poll_interval", m.cfg.PollInterval,
	)

	m.wg.Add(1)
	go m.run(ctx)
}

// Stop stops the monitor and waits for a running scan to finish
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	m.logger.Info("activity monitor stopped")
}

func (m *Monitor) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := m.clock.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.Chan():
			if _, err := m.Scan(ctx); err != nil {
				m.logger.Error("activity scan failed", "error", err)
			}
		}
	}
}

// Scan runs one detection pass. Failures for individual users are logged
// and counted; only a failure to read the activity log is returned.
func (m *Monitor) Scan(ctx context.Context) (*ScanResult, error) {
	start := time.Now()
	now := m.clock.Now()
	since := now.Add(-m.cfg.Window)

	counts, err := m.activity.CountActionsSince(ctx, since)
	if err != nil {
		metrics.ObserveMonitorScan("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to count recent actions: %w", err)
	}

	result := &ScanResult{}
	for _, c := range counts {
		if c.Count <= m.cfg.ActionThreshold {
			continue
		}
		result.Candidates++

		record, err := m.flag(ctx, c, now)
		switch {
		case err != nil:
			result.Failed++
			m.logger.Error("failed to flag user", "user_id", c.UserID, "actions", c.Count, "error", err)
		case record == nil:
			result.Skipped++
		default:
			result.Flagged = append(result.Flagged, record)
		}
	}

	metrics.ObserveMonitorScan("ok", time.Since(start).Seconds())
	if len(result.Flagged) > 0 || result.Failed > 0 {
		m.logger.Info("activity scan completed",
			"candidates", result.Candidates,
			"flagged", len(result.Flagged),
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// flag adds the user to the monitored list. It returns nil if the user
// is already monitored.
func (m *Monitor) flag(ctx context.Context, c models.UserActionCount, now time.Time) (*models.MonitoredUser, error) {
	exists, err := m.monitored.Exists(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, nil
	}

	username := models.UnknownUsername
	user, err := m.users.GetByID(ctx, c.UserID)
	if err != nil {
		m.logger.Warn("failed to resolve username", "user_id", c.UserID, "error", err)
	} else if user != nil {
		username = user.Username
	}

	record := &models.MonitoredUser{
		UserID:     c.UserID,
		Username:   username,
		Reason:     Reason(c.Count, m.cfg.Window),
		DetectedAt: now,
	}

	created, err := m.monitored.Insert(ctx, record)
	if err != nil {
		return nil, err
	}
	if !created {
		// Flagged concurrently since the existence check
		return nil, nil
	}

	metrics.IncMonitorFlagged()
	m.logger.Warn("user flagged for suspicious activity",
		"user_id", record.UserID,
		"username", record.Username,
		"actions", c.Count,
		"window", m.cfg.Window,
	)

	if m.notifier != nil {
		if err := m.notifier.UserFlagged(ctx, record); err != nil {
			m.logger.Error("failed to notify about flagged user", "user_id", record.UserID, "error", err)
		}
	}

	return record, nil
}

// Reason renders the human readable detection reason
func Reason(count int, window time.Duration) string {
	return fmt.Sprintf("High activity: %d actions in %s", count, formatWindow(window))
}

func formatWindow(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}
	return d.String()
}
