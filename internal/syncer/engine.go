// Package syncer replays queued operations against the server and routes
// new mutations either to the server or to the offline queue.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/foxzi/fittrack/internal/client"
	"github.com/foxzi/fittrack/internal/metrics"
	"github.com/foxzi/fittrack/internal/offline"
)

// Queue is the durable operation queue
type Queue interface {
	Enqueue(ctx context.Context, method, endpoint string, payload []byte) (*offline.Operation, error)
	List(ctx context.Context) ([]*offline.Operation, error)
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Doer performs raw API calls
type Doer interface {
	Do(ctx context.Context, method, endpoint string, body []byte) (*client.Response, error)
}

// Report describes one sync pass
type Report struct {
	Replayed          int    // operations confirmed by the server and removed
	Remaining         int    // operations still queued after the pass
	Skipped           bool   // another pass was already running
	FailedOperationID string // operation the pass halted on
	Err               error  // why the pass halted
}

// Halted reports whether the pass stopped on a failed operation
func (r *Report) Halted() bool {
	return r.FailedOperationID != ""
}

// Engine replays the queue in order, one operation at a time
type Engine struct {
	queue  Queue
	doer   Doer
	logger *slog.Logger

	running atomic.Bool
}

// NewEngine creates a sync engine
func NewEngine(queue Queue, doer Doer, logger *slog.Logger) *Engine {
	return &Engine{
		queue:  queue,
		doer:   doer,
		logger: logger.With("component", "syncer"),
	}
}

// Sync runs one replay pass. Operations are sent oldest first; each one is
// removed as soon as the server accepts it. The pass stops at the first
// failure so a later operation never overtakes an earlier one.
// A call made while another pass is running returns a skipped report.
func (e *Engine) Sync(ctx context.Context) (*Report, error) {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Debug("sync already in progress")
		metrics.IncSyncPass("skipped")
		return &Report{Skipped: true}, nil
	}
	defer e.running.Store(false)

	ops, err := e.queue.List(ctx)
	if err != nil {
		metrics.IncSyncPass("error")
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	report := &Report{}
	for i, op := range ops {
		if err := e.replay(ctx, op); err != nil {
			report.FailedOperationID = op.ID
			report.Err = err
			report.Remaining = len(ops) - i
			e.logger.Warn("sync halted",
				"operation_id", op.ID,
				"method", op.Method,
				"endpoint", op.Endpoint,
				"remaining", report.Remaining,
				"error", err,
			)
			break
		}

		if err := e.queue.Remove(ctx, op.ID); err != nil {
			// The server has the change; replaying it again must not block the queue
			report.FailedOperationID = op.ID
			report.Err = fmt.Errorf("failed to remove replayed operation: %w", err)
			report.Remaining = len(ops) - i
			e.logger.Error("failed to remove replayed operation", "operation_id", op.ID, "error", err)
			break
		}
		report.Replayed++
	}

	metrics.AddSyncReplayed(report.Replayed)
	e.refreshPending(ctx)

	if report.Halted() {
		metrics.IncSyncPass("halted")
	} else {
		metrics.IncSyncPass("ok")
	}
	if report.Replayed > 0 || report.Halted() {
		e.logger.Info("sync pass completed",
			"replayed", report.Replayed,
			"remaining", report.Remaining,
		)
	}
	return report, nil
}

func (e *Engine) replay(ctx context.Context, op *offline.Operation) error {
	body, err := op.Payload()
	if err != nil {
		return fmt.Errorf("failed to decode body: %w", err)
	}

	resp, err := e.doer.Do(ctx, op.Method, op.Endpoint, body)
	if err != nil {
		return err
	}
	return resp.Err()
}

// PendingCount returns the number of queued operations
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	return e.queue.Count(ctx)
}

func (e *Engine) refreshPending(ctx context.Context) {
	n, err := e.queue.Count(ctx)
	if err != nil {
		e.logger.Warn("failed to count pending operations", "error", err)
		return
	}
	metrics.SetOfflinePending(n)
}
