// Package ratelimit caps concurrent in-flight API requests per client IP
// and globally. Prediction requests do real propagation work, so an
// unbounded burst from one client can starve everyone else.
package ratelimit

import (
	"net/http"
	"sync"

	"github.com/shivmishra76/sat-tracker-cli/internal/httputil"
)

// Limiter tracks in-flight requests per IP and in total.
type Limiter struct {
	mu       sync.Mutex
	inflight map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewLimiter creates a Limiter allowing maxPerIP concurrent requests per
// client and maxTotal across all clients.
func NewLimiter(maxPerIP, maxTotal int) *Limiter {
	return &Limiter{
		inflight: make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire attempts to register a request for the given IP.
// Returns false if the per-IP or global limit has been reached.
func (l *Limiter) Acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal {
		return false
	}
	if l.inflight[ip] >= l.maxPerIP {
		return false
	}

	l.inflight[ip]++
	l.total++
	return true
}

// Release unregisters a request for the given IP.
func (l *Limiter) Release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inflight[ip]--
	l.total--
	if l.inflight[ip] <= 0 {
		delete(l.inflight, ip)
	}
}

// InFlight returns the number of active requests for the given IP.
func (l *Limiter) InFlight(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inflight[ip]
}

// probePaths are never rate limited so health checks and scrapes stay cheap.
var probePaths = map[string]bool{
	"/healthz": true,
	"/readyz":  true,
	"/metrics": true,
}

// Middleware rejects requests over the concurrency limits with 429.
func (l *Limiter) Middleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if probePaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ip := httputil.ClientIP(r, trustProxy)
			if !l.Acquire(ip) {
				w.Header().Set("Retry-After", "1")
				http.Error(w, "too many concurrent requests", http.StatusTooManyRequests)
				return
			}
			defer l.Release(ip)

			next.ServeHTTP(w, r)
		})
	}
}
