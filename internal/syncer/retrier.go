package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Retrier re-runs sync passes while the server stays reachable. A pass that
// halted on a server error is otherwise retried only after the next
// unavailable to available transition.
type Retrier struct {
	engine   *Engine
	status   Connectivity
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRetrier creates a retrier. clock may be nil.
func NewRetrier(engine *Engine, status Connectivity, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *Retrier {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Retrier{
		engine:   engine,
		status:   status,
		clock:    clock,
		interval: interval,
		logger:   logger.With("component", "sync_retrier"),
		stopCh:   make(chan struct{}),
	}
}

// Tick runs one pass when the server is reachable and operations are
// pending. It returns nil when there was nothing to do.
func (r *Retrier) Tick(ctx context.Context) (*Report, error) {
	if !r.status.Connected() {
		return nil, nil
	}

	pending, err := r.engine.PendingCount(ctx)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		return nil, nil
	}

	r.logger.Debug("retrying sync", "pending", pending)
	return r.engine.Sync(ctx)
}

// Start runs Tick on every interval until Stop is called
func (r *Retrier) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop stops the retrier and waits for a running pass
func (r *Retrier) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *Retrier) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		case <-ticker.Chan():
			if _, err := r.Tick(ctx); err != nil {
				r.logger.Error("sync retry failed", "error", err)
			}
		}
	}
}
