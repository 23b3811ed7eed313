package api

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// minIdleTTL is the shortest time an unused bucket is kept.
const minIdleTTL = 10 * time.Minute

// RateLimiter keeps one token bucket per key. Buckets idle long enough to
// have refilled completely are dropped, since a fresh bucket is identical.
type RateLimiter struct {
	mu        sync.Mutex
	limits    map[string]*limiterEntry
	every     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute events per key with the given burst.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	interval := time.Minute / time.Duration(max(perMinute, 1))
	return &RateLimiter{
		limits:  make(map[string]*limiterEntry),
		every:   rate.Every(interval),
		burst:   burst,
		idleTTL: max(minIdleTTL, time.Duration(burst)*interval),
		now:     time.Now,
	}
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		rl.sweep(now)
	}

	e, ok := rl.limits[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limits[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, e := range rl.limits {
		if now.Sub(e.lastSeen) >= rl.idleTTL {
			delete(rl.limits, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limits)
}
