// Package ratelimit admits at most a configured number of submission
// attempts per client within a trailing time window, backed by a durable
// shared store.
package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Limiter counts admitted attempts per client identifier over a sliding
// window. State lives entirely in the Store; the limiter itself holds no
// cross-request memory, so any number of instances can share one store.
type Limiter struct {
	store  Store
	max    int
	period time.Duration
	logger *slog.Logger

	// now is injectable for tests
	now func() time.Time
}

// New creates a Limiter admitting up to max attempts per period
func New(store Store, max int, period time.Duration, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		store:  store,
		max:    max,
		period: period,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the limiter's clock; used by tests
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Admit reports whether a new attempt by clientID may proceed. Expired
// entries are purged before counting; at the cap the attempt is rejected
// without being recorded. Store read errors fail open: an unreadable
// window must not block legitimate submissions.
func (l *Limiter) Admit(ctx context.Context, clientID string) bool {
	now := l.now()

	entries, err := l.store.Load(ctx)
	if err != nil {
		l.logger.Warn("rate limit store unreadable, admitting", "error", err)
	}
	if entries == nil {
		entries = make(map[string]int64)
	}

	// Purge entries at or beyond the window age, across all clients.
	// The boundary is strict: an entry exactly period old is expired.
	for key, ts := range entries {
		if now.UnixNano()-ts >= l.period.Nanoseconds() {
			delete(entries, key)
		}
	}

	// Count the surviving attempts for this client
	prefix := clientID + "_"
	count := 0
	for key := range entries {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}

	if count >= l.max {
		return false
	}

	// The key carries a random suffix so two attempts at the same instant
	// occupy distinct entries; a bare timestamp key would overwrite and
	// undercount them
	key := prefix + strconv.FormatInt(now.UnixNano(), 10) + "_" + uuid.New().String()
	entries[key] = now.UnixNano()
	if err := l.store.Save(ctx, entries); err != nil {
		l.logger.Warn("failed to persist rate window", "error", err)
	}

	return true
}
