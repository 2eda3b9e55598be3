package netstatus

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LinkSink receives link state changes
type LinkSink interface {
	SetOnline(online bool)
}

// LinkWatcher polls the network interfaces and reports link changes
type LinkWatcher struct {
	sink     LinkSink
	clock    clockwork.Clock
	interval time.Duration
	logger   *slog.Logger

	// hasLink is replaced in tests
	hasLink func() (bool, error)

	known    bool
	last     bool
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLinkWatcher creates a link watcher
func NewLinkWatcher(sink LinkSink, clock clockwork.Clock, interval time.Duration, logger *slog.Logger) *LinkWatcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LinkWatcher{
		sink:     sink,
		clock:    clock,
		interval: interval,
		logger:   logger.With("component", "link_watcher"),
		hasLink:  HasLink,
		stopCh:   make(chan struct{}),
	}
}

// HasLink reports whether a non-loopback interface is up and has an address
func HasLink() (bool, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if len(addrs) > 0 {
			return true, nil
		}
	}
	return false, nil
}

// Poll reads the link state once and notifies the sink on change
func (w *LinkWatcher) Poll() {
	online, err := w.hasLink()
	if err != nil {
		w.logger.Warn("failed to read network interfaces", "error", err)
		return
	}
	if w.known && online == w.last {
		return
	}
	w.known = true
	w.last = online
	w.sink.SetOnline(online)
}

// Start polls on every interval until Stop is called
func (w *LinkWatcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := w.clock.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case <-ticker.Chan():
				w.Poll()
			}
		}
	}()
}

// Stop stops polling
func (w *LinkWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}
