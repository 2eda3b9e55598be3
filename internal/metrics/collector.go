package metrics

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"
)

// MonitoredCounter reports the size of the monitored user list
type MonitoredCounter interface {
	Count(ctx context.Context) (int, error)
}

// Collector periodically refreshes gauges that are sampled rather than counted
type Collector struct {
	metrics     *Metrics
	monitored   MonitoredCounter
	storagePath string
	interval    time.Duration
	startTime   time.Time
	logger      *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewCollector creates a gauge collector. monitored may be nil.
func NewCollector(m *Metrics, monitored MonitoredCounter, storagePath string, interval time.Duration, logger *slog.Logger) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Collector{
		metrics:     m,
		monitored:   monitored,
		storagePath: storagePath,
		interval:    interval,
		startTime:   time.Now(),
		logger:      logger.With("component", "metrics_collector"),
		stopCh:      make(chan struct{}),
	}
}

// Start begins periodic collection
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go c.run(ctx)
}

// Stop stops the collector
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) run(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.Collect(ctx)
		}
	}
}

// Collect samples all gauges once
func (c *Collector) Collect(ctx context.Context) {
	c.metrics.UptimeSeconds.Set(time.Since(c.startTime).Seconds())
	c.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))

	if c.storagePath != "" {
		if info, err := os.Stat(c.storagePath); err == nil {
			c.metrics.StorageUsedBytes.Set(float64(info.Size()))
		}
	}

	if c.monitored != nil {
		n, err := c.monitored.Count(ctx)
		if err != nil {
			c.logger.Warn("failed to count monitored users", "error", err)
			return
		}
		c.metrics.MonitoredUsers.Set(float64(n))
	}
}
