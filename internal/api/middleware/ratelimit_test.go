package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Parallel() // Enable parallel execution

	limiter := NewRateLimiter(0.001, 2)
	handler := limiter.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5002"), "burst exhausted for this IP")
	assert.Equal(t, http.StatusOK, call("10.0.0.2:5000"), "other clients are unaffected")
}

func TestRateLimiterResetsPeriodically(t *testing.T) {
	t.Parallel() // Enable parallel execution

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(0.001, 1)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.limiterFor("10.0.0.1").Allow())
	assert.False(t, limiter.limiterFor("10.0.0.1").Allow())

	now = now.Add(limiterResetInterval + time.Minute)
	assert.True(t, limiter.limiterFor("10.0.0.1").Allow(), "limiters are rebuilt after the reset interval")
}

func TestClientIP(t *testing.T) {
	t.Parallel() // Enable parallel execution

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4242"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "192.0.2.8"
	assert.Equal(t, "192.0.2.8", clientIP(req))
}
