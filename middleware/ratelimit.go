package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key (usually a client IP).
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	r       rate.Limit
	b       int
}

// NewKeyedLimiter creates a KeyedLimiter; r = tokens per second, b = burst size.
func NewKeyedLimiter(r rate.Limit, b int) *KeyedLimiter {
	return &KeyedLimiter{entries: make(map[string]*keyedEntry), r: r, b: b}
}

// Allow consumes one token from key's bucket.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.entries[key] = e
	}
	e.lastSeen = time.Now()
	l.mu.Unlock()
	return e.limiter.Allow()
}

// Sweep drops buckets idle for longer than idle and returns how many were removed.
func (l *KeyedLimiter) Sweep(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for k, e := range l.entries {
		if e.lastSeen.Before(cutoff) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// RateLimit provides per-IP token-bucket rate limiting backed by l.
// Idle buckets are removed by calling l.Sweep periodically.
func RateLimit(l *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
