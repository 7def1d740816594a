package ratelimit

import (
	"math"
	"sync"
	"time"
)

type bucket struct {
	tokens float64
	last   time.Time
}

// Limiter is a per-key token bucket. Every key gets Capacity tokens and
// regains RefillPerSec tokens per second.
type Limiter struct {
	capacity float64
	refill   float64

	mu  sync.Mutex
	m   map[string]*bucket
	now func() time.Time
}

// New creates a limiter. A non-positive capacity disables limiting.
func New(capacity, refillPerSec float64) *Limiter {
	return &Limiter{
		capacity: capacity,
		refill:   refillPerSec,
		m:        make(map[string]*bucket),
		now:      time.Now,
	}
}

// Enabled reports whether Allow can ever return false.
func (l *Limiter) Enabled() bool { return l != nil && l.capacity > 0 }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	if !l.Enabled() {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: l.capacity, last: now}
		l.m[key] = b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = min(l.capacity, b.tokens+elapsed*l.refill)
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// Sweep drops buckets untouched for longer than idle; they would be full anyway.
func (l *Limiter) Sweep(idle time.Duration) int {
	if !l.Enabled() {
		return 0
	}
	cutoff := l.now().Add(-idle)

	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, b := range l.m {
		if b.last.Before(cutoff) {
			delete(l.m, k)
			n++
		}
	}
	return n
}

// RetryAfter is how long a drained bucket needs to earn one token, rounded
// up to a whole second. Zero when limiting is off or never refills.
func (l *Limiter) RetryAfter() time.Duration {
	if !l.Enabled() || l.refill <= 0 {
		return 0
	}
	return time.Duration(math.Ceil(1/l.refill)) * time.Second
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
