// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time
}

type bucket struct {
	l    *rate.Limiter
	seen time.Time
}

// New allows perWindow requests per window for each key, all of them
// available as a burst.
func New(perWindow int, window time.Duration) *Limiter {
	if perWindow <= 0 {
		perWindow = 1
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Every(window / time.Duration(perWindow)),
		burst:   perWindow,
		idle:    window * 2,
		now:     time.Now,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{l: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	l.sweep(now)
	return b.l.AllowN(now, 1)
}

// Reset forgets key, restoring its full burst.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// sweep drops buckets idle for longer than l.idle. Caller holds l.mu.
func (l *Limiter) sweep(now time.Time) {
	if len(l.buckets) < 1024 {
		return
	}
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the
// host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// SigninLimiter throttles sign-in attempts per client IP and per email.
type SigninLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewSigninLimiter allows perMinute attempts per IP per minute and a fifth
// of that (at least one) per email.
func NewSigninLimiter(perMinute int) *SigninLimiter {
	perEmail := perMinute / 5
	if perEmail < 1 {
		perEmail = 1
	}
	return &SigninLimiter{
		ip:    New(perMinute, time.Minute),
		email: New(perEmail, time.Minute),
	}
}

// Check reports whether the attempt may proceed.
func (s *SigninLimiter) Check(r *http.Request, email string) bool {
	if !s.ip.Allow(ClientIP(r)) {
		return false
	}
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		return s.email.Allow(key)
	}
	return true
}

// ResetEmail clears the per-email bucket after a successful sign-in.
func (s *SigninLimiter) ResetEmail(email string) {
	if key := strings.ToLower(strings.TrimSpace(email)); key != "" {
		s.email.Reset(key)
	}
}

// CheckIP applies only the per-IP bucket. Sign-up uses it; there is no
// account yet to key on.
func (s *SigninLimiter) CheckIP(r *http.Request) bool {
	return s.ip.Allow(ClientIP(r))
}
