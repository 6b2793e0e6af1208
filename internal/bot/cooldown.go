package bot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// cooldowns throttles the link conversion commands per user.
type cooldowns struct {
	every time.Duration
	burst int

	mu    sync.Mutex
	users map[string]*userLimiter
}

func newCooldowns(every time.Duration, burst int) *cooldowns {
	return &cooldowns{every: every, burst: burst, users: make(map[string]*userLimiter)}
}

// allow reports whether userID may run a conversion now.
func (c *cooldowns) allow(userID string) bool {
	return c.getOrCreate(userID).Allow()
}

func (c *cooldowns) getOrCreate(userID string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ul, ok := c.users[userID]; ok {
		ul.lastAccess = time.Now()
		return ul.limiter
	}
	l := rate.NewLimiter(rate.Every(c.every), c.burst)
	c.users[userID] = &userLimiter{limiter: l, lastAccess: time.Now()}
	return l
}

// cleanupLoop drops limiters idle for longer than ttl until ctx ends.
func (c *cooldowns) cleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			c.cleanup(now, ttl)
		}
	}
}

func (c *cooldowns) cleanup(now time.Time, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ul := range c.users {
		if now.Sub(ul.lastAccess) > ttl {
			delete(c.users, id)
		}
	}
}
