package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/foxzi/fittrack/internal/client"
	"github.com/foxzi/fittrack/internal/metrics"
)

// Result is the outcome of Gateway.Submit: Immediate or Deferred
type Result interface {
	isResult()
}

// Immediate means the server processed the request
type Immediate struct {
	Response *client.Response
}

// Deferred means the request was queued and will be replayed later
type Deferred struct {
	OperationID string
	Reason      string
}

func (Immediate) isResult() {}
func (Deferred) isResult() {}

// Connectivity reports whether the server should be called directly
type Connectivity interface {
	Connected() bool
}

// Gateway decides whether a mutation goes to the server or to the queue
type Gateway struct {
	queue  Queue
	doer   Doer
	status Connectivity
	logger *slog.Logger

	preserveOrder bool
}

// NewGateway creates a gateway
func NewGateway(queue Queue, doer Doer, status Connectivity, logger *slog.Logger) *Gateway {
	return &Gateway{
		queue:  queue,
		doer:   doer,
		status: status,
		logger: logger.With("component", "gateway"),
	}
}

// PreserveOrder makes Submit queue a mutation while older operations are
// still pending, so it cannot overtake them on the server
func (g *Gateway) PreserveOrder(enabled bool) {
	g.preserveOrder = enabled
}

// Submit sends a mutation. Requests that cannot reach the server, or that
// fail with a 5xx, are queued. A 4xx response is returned as an error
// because replaying a rejected request would block the queue.
func (g *Gateway) Submit(ctx context.Context, method, endpoint string, body []byte) (Result, error) {
	if !g.status.Connected() {
		return g.enqueue(ctx, method, endpoint, body, "offline")
	}

	if g.preserveOrder {
		pending, err := g.queue.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count pending operations: %w", err)
		}
		if pending > 0 {
			return g.enqueue(ctx, method, endpoint, body, fmt.Sprintf("%d older operation(s) pending", pending))
		}
	}

	resp, err := g.doer.Do(ctx, method, endpoint, body)
	if err != nil {
		if client.IsNetworkError(err) {
			return g.enqueue(ctx, method, endpoint, body, err.Error())
		}
		return nil, err
	}

	if resp.OK() {
		return Immediate{Response: resp}, nil
	}
	if resp.StatusCode >= 500 {
		return g.enqueue(ctx, method, endpoint, body, fmt.Sprintf("HTTP %d", resp.StatusCode))
	}
	return nil, resp.Err()
}

func (g *Gateway) enqueue(ctx context.Context, method, endpoint string, body []byte, reason string) (Result, error) {
	op, err := g.queue.Enqueue(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to queue operation: %w", err)
	}

	g.logger.Info("operation queued",
		"operation_id", op.ID,
		"method", method,
		"endpoint", endpoint,
		"reason", reason,
	)
	if n, err := g.queue.Count(ctx); err == nil {
		metrics.SetOfflinePending(n)
	}
	return Deferred{OperationID: op.ID, Reason: reason}, nil
}
