// Package ratelimit implements a fixed-window request limiter keyed by a
// best-effort client fingerprint. The window store is pluggable: in-process
// for single instances, Redis when running more than one replica.
package ratelimit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/klarpost/klarpost/internal/observability"
)

// Store counts requests per key within a fixed window. Incr returns the
// count including the current request. The first increment of a window
// starts its expiry clock.
type Store interface {
	Incr(ctx context.Context, key string, window time.Duration) (int, error)
}

// Limiter enforces a fixed-window request ceiling per client key.
type Limiter struct {
	store  Store
	max    int
	window time.Duration
	logger *observability.Logger
}

// NewLimiter creates a limiter allowing max requests per window per key.
func NewLimiter(store Store, max int, window time.Duration, logger *observability.Logger) *Limiter {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Limiter{
		store:  store,
		max:    max,
		window: window,
		logger: logger.WithComponent("ratelimit"),
	}
}

// Allow records one request for key and reports whether it is within the
// limit. A failing store fails open: limiting is a shield for the upstream,
// not a correctness guarantee, and an outage must not take down the service.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	count, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		l.logger.WithContext(ctx).Warn().Err(err).Msg("window store unavailable, allowing request")
		return true
	}
	return count <= l.max
}

// RetryAfter returns the window length, the upper bound a denied client
// should wait before retrying.
func (l *Limiter) RetryAfter() time.Duration {
	return l.window
}

// ClientKey derives the limiter key for a request: the first hop of
// X-Forwarded-For (or "local" when absent) joined with a user-agent prefix.
// Deliberately coarse; it only needs to group one client's burst.
func ClientKey(r *http.Request) string {
	ip := "local"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			ip = first
		}
	}
	ua := r.Header.Get("User-Agent")
	if len(ua) > 40 {
		ua = ua[:40]
	}
	return ip + "::" + ua
}
