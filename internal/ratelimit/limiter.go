// Package ratelimit bounds outbound request rate with a sliding-window
// admission queue: at most maxRequests admissions in any trailing window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidConfiguration is returned by New for non-positive parameters.
var ErrInvalidConfiguration = errors.New("ratelimit: invalid configuration")

// Limiter admits callers so that no trailing window ever holds more than
// max admissions. Safe for concurrent use. One Limiter gates one upstream.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	admitted []time.Time
}

// New validates the configuration and returns a Limiter.
func New(maxRequests int, window time.Duration) (*Limiter, error) {
	if maxRequests <= 0 {
		return nil, fmt.Errorf("%w: max requests must be positive, got %d", ErrInvalidConfiguration, maxRequests)
	}
	if window <= 0 {
		return nil, fmt.Errorf("%w: time window must be positive, got %v", ErrInvalidConfiguration, window)
	}
	return &Limiter{
		max:      maxRequests,
		window:   window,
		admitted: make([]time.Time, 0, maxRequests),
	}, nil
}

// Acquire blocks until one more admission fits in the trailing window, then
// records it. The admission is recorded only on success; a caller that gives
// up via ctx leaves the queue untouched. The wait happens outside the lock,
// and the full evict-and-check runs again after every wake because another
// caller may have taken the freed slot.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.evict(now)
		if len(l.admitted) < l.max {
			l.admitted = append(l.admitted, now)
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.admitted[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire records an admission if one fits right now, without blocking.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.evict(now)
	if len(l.admitted) >= l.max {
		return false
	}
	l.admitted = append(l.admitted, now)
	return true
}

// CurrentLoad reports how many admissions sit in the trailing window. It
// sweeps expired entries like Acquire but never takes a slot.
func (l *Limiter) CurrentLoad() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(time.Now())
	return len(l.admitted)
}

// Max returns the configured admission ceiling.
func (l *Limiter) Max() int { return l.max }

// Window returns the configured trailing window.
func (l *Limiter) Window() time.Duration { return l.window }

// evict drops entries older than the trailing window. Timestamps come from
// time.Now, so Sub compares monotonic readings. Caller holds l.mu.
func (l *Limiter) evict(now time.Time) {
	i := 0
	for i < len(l.admitted) && now.Sub(l.admitted[i]) >= l.window {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
