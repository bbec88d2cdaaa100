package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/phrazzld/synth-study/internal/api/shared"
	"github.com/phrazzld/synth-study/internal/platform/logger"
	"golang.org/x/time/rate"
)

// limiterResetInterval bounds the memory held by per-client limiters.
const limiterResetInterval = time.Hour

// RateLimiter throttles requests per client IP.
type RateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

// NewRateLimiter allows perSecond requests per client IP with the given
// burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the limiter for ip, creating it on first use.
func (l *RateLimiter) limiterFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastCleanup.IsZero() {
		l.lastCleanup = now
	}
	if now.Sub(l.lastCleanup) > limiterResetInterval {
		l.limiters = make(map[string]*rate.Limiter)
		l.lastCleanup = now
	}

	limiter, exists := l.limiters[ip]
	if !exists {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter
}

// Limit rejects requests over the client's budget with 429.
func (l *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !l.limiterFor(ip).Allow() {
			logger.FromContext(r.Context()).Warn("rate limit exceeded", slog.String("path", r.URL.Path))
			w.Header().Set("Retry-After", "1")
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Too many requests, please slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the request's remote IP. Forwarding headers are already
// folded into RemoteAddr by chi's RealIP middleware.
func clientIP(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}
