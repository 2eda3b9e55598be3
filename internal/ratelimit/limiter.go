package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Level represents the level of rate limiting
type Level string

const (
	LevelIP       Level = "ip"
	LevelUsername Level = "username"
)

// pruneThreshold bounds the counter map before expired entries are swept
const pruneThreshold = 1024

// Config contains login throttling configuration
type Config struct {
	MaxFailures int           // Failed attempts allowed per key within Window (0 disables)
	Window      time.Duration // Default: 15m
}

// Counter tracks failed attempts for one key
type Counter struct {
	Failures    int
	WindowStart time.Time
}

// Limiter throttles repeated failed logins per client IP and per username
type Limiter struct {
	config   Config
	clock    clockwork.Clock
	counters map[string]*Counter // key -> counter
	mu       sync.Mutex
}

// NewLimiter creates a new login limiter
func NewLimiter(cfg Config, clock clockwork.Clock) *Limiter {
	if cfg.Window == 0 {
		cfg.Window = 15 * time.Minute
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Limiter{
		config:   cfg,
		clock:    clock,
		counters: make(map[string]*Counter),
	}
}

// Request identifies a login attempt
type Request struct {
	IP       string // Client IP
	Username string // Submitted username or e-mail
}

// Result contains the rate limit check result
type Result struct {
	Allowed    bool
	DeniedBy   Level
	RetryAfter time.Duration
}

// Check reports whether another attempt is allowed without counting it
func (l *Limiter) Check(req Request) *Result {
	result := &Result{Allowed: true}
	if l.config.MaxFailures <= 0 {
		return result
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for _, key := range keys(req) {
		counter, exists := l.counters[key.key]
		if !exists || l.expired(counter, now) {
			continue
		}
		if counter.Failures >= l.config.MaxFailures {
			result.Allowed = false
			result.DeniedBy = key.level
			result.RetryAfter = counter.WindowStart.Add(l.config.Window).Sub(now)
			return result
		}
	}

	return result
}

// RecordFailure counts a failed attempt against every key of the request
func (l *Limiter) RecordFailure(req Request) {
	if l.config.MaxFailures <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if len(l.counters) >= pruneThreshold {
		l.prune(now)
	}

	for _, key := range keys(req) {
		counter, exists := l.counters[key.key]
		if !exists || l.expired(counter, now) {
			counter = &Counter{WindowStart: now}
			l.counters[key.key] = counter
		}
		counter.Failures++
	}
}

// Reset clears the username counter after a successful login.
// The IP counter is kept so one address cannot probe many accounts.
func (l *Limiter) Reset(req Request) {
	if req.Username == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.counters, makeKey(LevelUsername, req.Username))
}

// Failures returns the current failure count for a key
func (l *Limiter) Failures(level Level, key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	counter, exists := l.counters[makeKey(level, key)]
	if !exists || l.expired(counter, l.clock.Now()) {
		return 0
	}
	return counter.Failures
}

func (l *Limiter) expired(counter *Counter, now time.Time) bool {
	return now.Sub(counter.WindowStart) >= l.config.Window
}

func (l *Limiter) prune(now time.Time) {
	for key, counter := range l.counters {
		if l.expired(counter, now) {
			delete(l.counters, key)
		}
	}
}

type levelKey struct {
	level Level
	key   string
}

func keys(req Request) []levelKey {
	var out []levelKey
	if req.IP != "" {
		out = append(out, levelKey{LevelIP, makeKey(LevelIP, req.IP)})
	}
	if req.Username != "" {
		out = append(out, levelKey{LevelUsername, makeKey(LevelUsername, req.Username)})
	}
	return out
}

func makeKey(level Level, key string) string {
	return string(level) + ":" + key
}
