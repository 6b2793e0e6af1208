package delivery

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most limit events in any rolling window. Callers over
// the limit block until the oldest admitted event leaves the window.
type Limiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	times []time.Time
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	return &Limiter{limit: limit, window: window, now: time.Now}
}

// Wait blocks until the caller may send or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		wait := l.reserve()
		if wait <= 0 {
			return nil
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

// reserve records a send and returns zero, or returns how long to wait
// before trying again.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	expired := 0
	for _, t := range l.times {
		if now.Sub(t) < l.window {
			break
		}
		expired++
	}
	if expired > 0 {
		l.times = l.times[expired:]
	}

	if len(l.times) < l.limit {
		l.times = append(l.times, now)
		return 0
	}
	return l.times[0].Add(l.window).Sub(now)
}
