// Package netstatus tracks whether the client can reach the FitTrack server.
package netstatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/foxzi/fittrack/internal/client"
	"github.com/foxzi/fittrack/internal/metrics"
)

// Prober checks server health
type Prober interface {
	Health(ctx context.Context) (*client.HealthResponse, error)
}

// Config contains probe settings
type Config struct {
	Interval time.Duration // periodic probe cadence (default: 30s)
	Timeout  time.Duration // single probe timeout (default: 5s)
}

// Snapshot is the connectivity state at one instant
type Snapshot struct {
	Online          bool `json:"online"`
	ServerAvailable bool `json:"server_available"`
}

// Connected reports whether requests should go to the server directly
func (s Snapshot) Connected() bool {
	return s.Online && s.ServerAvailable
}

// Tracker combines the platform link signal with periodic health probes
type Tracker struct {
	prober Prober
	clock  clockwork.Clock
	cfg    Config
	logger *slog.Logger

	mu              sync.RWMutex
	online          bool
	serverAvailable bool
	onAvailable     []func(ctx context.Context)
	probeSeq        uint64 // last probe started
	appliedSeq      uint64 // newest probe whose result was applied

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTracker creates a tracker. online is the link state known at startup.
// The server is considered unavailable until the first successful probe.
func NewTracker(prober Prober, online bool, clock clockwork.Clock, cfg Config, logger *slog.Logger) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Tracker{
		prober: prober,
		clock:  clock,
		cfg:    cfg,
		logger: logger.With("component", "netstatus"),
		online: online,
		stopCh: make(chan struct{}),
	}
}

// OnServerAvailable registers fn to run each time the server becomes
// available after being unavailable
func (t *Tracker) OnServerAvailable(fn func(ctx context.Context)) {
	t.mu.Lock()
	t.onAvailable = append(t.onAvailable, fn)
	t.mu.Unlock()
}

// SetOnline records a platform connectivity change and probes the server
// in the background
func (t *Tracker) SetOnline(online bool) {
	t.mu.Lock()
	changed := t.online != online
	t.online = online
	t.mu.Unlock()

	if changed {
		t.logger.Info("link state changed", "online", online)
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.Check(context.Background())
	}()
}

// Check probes the server once and returns the new availability.
// Probes may overlap; a result older than one already applied is dropped.
func (t *Tracker) Check(ctx context.Context) bool {
	t.mu.Lock()
	t.probeSeq++
	seq := t.probeSeq
	t.mu.Unlock()

	probeCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	_, err := t.prober.Health(probeCtx)
	available := err == nil

	t.mu.Lock()
	if seq < t.appliedSeq {
		current := t.serverAvailable
		t.mu.Unlock()
		t.logger.Debug("dropping stale health probe", "available", available)
		return current
	}
	t.appliedSeq = seq
	became := available && !t.serverAvailable
	lost := !available && t.serverAvailable
	t.serverAvailable = available
	var callbacks []func(ctx context.Context)
	if became {
		callbacks = append(callbacks, t.onAvailable...)
	}
	t.mu.Unlock()

	metrics.SetServerAvailable(available)

	switch {
	case became:
		t.logger.Info("server became available")
	case lost:
		t.logger.Warn("server became unavailable", "error", err)
	case err != nil:
		t.logger.Debug("health probe failed", "error", err)
	}

	for _, fn := range callbacks {
		fn(ctx)
	}
	return available
}

// Start probes immediately and then on every interval until Stop is called
func (t *Tracker) Start(ctx context.Context) {
	t.wg.Add(1)
	go t.run(ctx)
}

// Stop stops periodic probing and waits for running probes
func (t *Tracker) Stop() {
	t.stopOnce.Do(func() { close(t.stopCh) })
	t.wg.Wait()
}

func (t *Tracker) run(ctx context.Context) {
	defer t.wg.Done()

	ticker := t.clock.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.Chan():
			t.Check(ctx)
		}
	}
}

// Snapshot returns the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Snapshot{Online: t.online, ServerAvailable: t.serverAvailable}
}

// IsOnline reports the platform link state
func (t *Tracker) IsOnline() bool {
	return t.Snapshot().Online
}

// IsServerAvailable reports the result of the last probe
func (t *Tracker) IsServerAvailable() bool {
	return t.Snapshot().ServerAvailable
}

// Connected reports whether the link is up and the server answered the last probe
func (t *Tracker) Connected() bool {
	return t.Snapshot().Connected()
}
