package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	globalMetrics *Metrics
	globalMu      sync.RWMutex
)

// Metrics holds all Prometheus metrics for FitTrack
type Metrics struct {
	// Activity log
	ActivityEntriesTotal *prometheus.CounterVec

	// Suspicious activity monitor
	MonitorScansTotal   *prometheus.CounterVec
	MonitorScanDuration prometheus.Histogram
	MonitorFlaggedTotal prometheus.Counter
	MonitoredUsers      prometheus.Gauge
	NotificationsTotal  *prometheus.CounterVec

	// Offline sync (client daemon)
	SyncPassesTotal   *prometheus.CounterVec
	SyncReplayedTotal prometheus.Counter
	OfflinePending    prometheus.Gauge
	ServerAvailable   prometheus.Gauge

	// API metrics
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec
	APIErrorsTotal            *prometheus.CounterVec

	// System metrics
	UptimeSeconds    prometheus.Gauge
	Goroutines       prometheus.Gauge
	StorageUsedBytes prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ActivityEntriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittrack_activity_entries_total",
				Help: "Total number of activity log entries written",
			},
			[]string{"action"},
		),

		MonitorScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittrack_monitor_scans_total",
				Help: "Total number of activity monitor scans",
			},
			[]string{"result"},
		),
		MonitorScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fittrack_monitor_scan_duration_seconds",
				Help:    "Activity monitor scan duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		MonitorFlaggedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fittrack_monitor_flagged_total",
				Help: "Total number of users added to the monitored list",
			},
		),
		MonitoredUsers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fittrack_monitored_users",
				Help: "Number of users currently on the monitored list",
			},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittrack_notifications_total",
				Help: "Total number of admin notifications by result",
			},
			[]string{"result"},
		),

		SyncPassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittrack_sync_passes_total",
				Help: "Total number of offline queue sync passes",
			},
			[]string{"result"},
		),
		SyncReplayedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fittrack_sync_replayed_total",
				Help: "Total number of queued operations replayed successfully",
			},
		),
		OfflinePending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fittrack_offline_pending_operations",
				Help: "Number of operations waiting in the offline queue",
			},
		),
		ServerAvailable: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fittrack_server_available",
				Help: "Whether the last health probe succeeded (1) or not (0)",
			},
		),

		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittrack_api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fittrack_api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		APIErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fittrack_api_errors_total",
				Help: "Total number of API errors",
			},
			[]string{"error_type"},
		),

		UptimeSeconds: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fittrack_uptime_seconds",
				Help: "Process uptime in seconds",
			},
		),
		Goroutines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fittrack_goroutines",
				Help: "Number of active goroutines",
			},
		),
		StorageUsedBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "fittrack_storage_used_bytes",
				Help: "Database file size in bytes",
			},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.ActivityEntriesTotal,
		m.MonitorScansTotal,
		m.MonitorScanDuration,
		m.MonitorFlaggedTotal,
		m.MonitoredUsers,
		m.NotificationsTotal,
		m.SyncPassesTotal,
		m.SyncReplayedTotal,
		m.OfflinePending,
		m.ServerAvailable,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		m.APIErrorsTotal,
		m.UptimeSeconds,
		m.Goroutines,
		m.StorageUsedBytes,
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetGlobal sets the global metrics instance
func SetGlobal(m *Metrics) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalMetrics = m
}

// Global returns the global metrics instance
func Global() *Metrics {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalMetrics
}

// IncActivity increments the activity entry counter
func IncActivity(action string) {
	if m := Global(); m != nil {
		m.ActivityEntriesTotal.WithLabelValues(action).Inc()
	}
}

// ObserveMonitorScan records the outcome of one monitor scan
func ObserveMonitorScan(result string, seconds float64) {
	if m := Global(); m != nil {
		m.MonitorScansTotal.WithLabelValues(result).Inc()
		m.MonitorScanDuration.Observe(seconds)
	}
}

// IncMonitorFlagged increments the flagged user counter
func IncMonitorFlagged() {
	if m := Global(); m != nil {
		m.MonitorFlaggedTotal.Inc()
	}
}

// SetMonitoredUsers sets the monitored user gauge
func SetMonitoredUsers(n int) {
	if m := Global(); m != nil {
		m.MonitoredUsers.Set(float64(n))
	}
}

// IncNotifications increments the notification counter
func IncNotifications(result string) {
	if m := Global(); m != nil {
		m.NotificationsTotal.WithLabelValues(result).Inc()
	}
}

// IncSyncPass increments the sync pass counter
func IncSyncPass(result string) {
	if m := Global(); m != nil {
		m.SyncPassesTotal.WithLabelValues(result).Inc()
	}
}

// AddSyncReplayed adds to the replayed operations counter
func AddSyncReplayed(n int) {
	if m := Global(); m != nil && n > 0 {
		m.SyncReplayedTotal.Add(float64(n))
	}
}

// SetOfflinePending sets the offline queue gauge
func SetOfflinePending(n int) {
	if m := Global(); m != nil {
		m.OfflinePending.Set(float64(n))
	}
}

// SetServerAvailable sets the server availability gauge
func SetServerAvailable(available bool) {
	if m := Global(); m != nil {
		if available {
			m.ServerAvailable.Set(1)
		} else {
			m.ServerAvailable.Set(0)
		}
	}
}

// IncAPIErrors increments API error counter
func IncAPIErrors(errorType string) {
	if m := Global(); m != nil {
		m.APIErrorsTotal.WithLabelValues(errorType).Inc()
	}
}
