package middleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	bucketIdle      = 10 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// TokenBucket implements token bucket rate limiting
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastSeen   time.Time
}

func NewTokenBucket(capacity, refillRate int, now time.Time) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: float64(refillRate),
		lastSeen:   now,
	}
}

// Allow takes one token at now. When empty it reports how long until the next token.
func (tb *TokenBucket) Allow(now time.Time) (bool, time.Duration) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	if elapsed := now.Sub(tb.lastSeen).Seconds(); elapsed > 0 {
		tb.tokens = math.Min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	}
	tb.lastSeen = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	if tb.refillRate <= 0 {
		return false, time.Minute
	}
	wait := (1 - tb.tokens) / tb.refillRate
	return false, time.Duration(wait * float64(time.Second))
}

// RateLimiter manages rate limits per tenant and client address
type RateLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*TokenBucket
	capacity   int
	refillRate int
	now        func() time.Time
}

func NewRateLimiter(capacity, refillRate int) *RateLimiter {
	return &RateLimiter{
		buckets:    make(map[string]*TokenBucket),
		capacity:   capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
}

func (rl *RateLimiter) bucket(key string, now time.Time) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		b = NewTokenBucket(rl.capacity, rl.refillRate, now)
		rl.buckets[key] = b
	}
	return b
}

func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()
	return rl.bucket(key, now).Allow(now)
}

// Prune drops buckets idle for longer than bucketIdle.
func (rl *RateLimiter) Prune() int {
	now := rl.now()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for key, b := range rl.buckets {
		b.mu.Lock()
		idle := now.Sub(b.lastSeen) > bucketIdle
		b.mu.Unlock()
		if idle {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// Run prunes idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
		}
	}
}

// Middleware limits requests per tenant + client ip.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r) {
			next.ServeHTTP(w, r)
			return
		}
		tenant := GetTenantFromContext(r.Context())
		if tenant == "" {
			tenant = chi.URLParam(r, "tenant")
		}
		ok, wait := rl.Allow(tenant + ":" + clientIP(r))
		if !ok {
			secs := int(math.Ceil(wait.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
