package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a token bucket keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	max     int
	per     time.Duration
}

type bucket struct {
	ts     time.Time
	tokens int
}

func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per}
}

// Middleware enforces the limit before calling the next handler.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			ip = req.RemoteAddr
		}

		l.mu.Lock()
		b := l.buckets[ip]
		if b == nil || time.Since(b.ts) > l.per {
			b = &bucket{ts: time.Now(), tokens: l.max}
			l.buckets[ip] = b
		}

		if b.tokens <= 0 {
			l.mu.Unlock()
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}

		b.tokens--
		l.mu.Unlock()

		next.ServeHTTP(w, req)
	})
}
