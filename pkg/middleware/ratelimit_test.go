package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiterSlidingWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter(3, 100*time.Millisecond)
	defer limiter.Stop()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "client-a")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be admitted", i+1)
	}

	allowed, err := limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request in the window must be rejected")

	// A different key has its own window.
	allowed, err = limiter.Allow(ctx, "client-b")
	require.NoError(t, err)
	assert.True(t, allowed)

	time.Sleep(120 * time.Millisecond)

	allowed, err = limiter.Allow(ctx, "client-a")
	require.NoError(t, err)
	assert.True(t, allowed, "window should be clear after it elapses")
}

func TestMemoryRateLimiterRejectionNotRecorded(t *testing.T) {
	limiter := NewMemoryRateLimiter(2, 150*time.Millisecond)
	defer limiter.Stop()
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "client")
	time.Sleep(50 * time.Millisecond)
	_, _ = limiter.Allow(ctx, "client")

	// Window is full. Rejected attempts must not extend the lockout past the
	// expiry of the first admitted request.
	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "client")
		require.NoError(t, err)
		assert.False(t, allowed)
	}

	time.Sleep(110 * time.Millisecond)

	allowed, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed, "slot should free once the first request ages out")
}

func TestMemoryRateLimiterReset(t *testing.T) {
	limiter := NewMemoryRateLimiter(1, time.Minute)
	defer limiter.Stop()
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, allowed)

	require.NoError(t, limiter.Reset(ctx, "client"))

	allowed, err = limiter.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestPurgeExpired(t *testing.T) {
	now := time.Now()
	cutoff := now.Add(-time.Minute)

	tests := []struct {
		name     string
		requests []time.Time
		want     int
	}{
		{"all fresh", []time.Time{now.Add(-time.Second), now}, 2},
		{"all expired", []time.Time{now.Add(-3 * time.Minute), now.Add(-2 * time.Minute)}, 0},
		{"mixed", []time.Time{now.Add(-2 * time.Minute), now.Add(-30 * time.Second), now}, 2},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, purgeExpired(tt.requests, cutoff), tt.want)
		})
	}
}

type fixedLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fixedLimiter) Allow(_ context.Context, key string) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

func (f *fixedLimiter) Reset(context.Context, string) error { return nil }

func performRequest(handler gin.HandlerFunc, configure func(*http.Request)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handler)
	router.GET("/v1/pipeline/stats", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/v1/pipeline/stats", nil)
	req.RemoteAddr = "203.0.113.7:40112"
	if configure != nil {
		configure(req)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddlewareRejectsWith429(t *testing.T) {
	limiter := &fixedLimiter{allowed: false}
	rejected := 0
	w := performRequest(RateLimit(RateLimitConfig{
		Limiter:  limiter,
		OnReject: func(string) { rejected++ },
	}), nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Rate limit exceeded")
	assert.Equal(t, 1, rejected)
}

func TestRateLimitMiddlewareAllowsOnBackendError(t *testing.T) {
	limiter := &fixedLimiter{err: errors.New("redis down")}
	w := performRequest(RateLimit(RateLimitConfig{Limiter: limiter}), nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddlewareSkipsConfiguredPaths(t *testing.T) {
	limiter := &fixedLimiter{allowed: false}
	handler := RateLimit(RateLimitConfig{Limiter: limiter, SkipPaths: []string{"/healthz"}})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handler)
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "203.0.113.7:40112"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, limiter.keys, "skipped paths must not consume the budget")
}

func TestClientIPTrustedProxyHandling(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trusted    []string
		want       string
	}{
		{
			name:       "no proxies configured ignores headers",
			remoteAddr: "203.0.113.7:40112",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9"},
			want:       "203.0.113.7",
		},
		{
			name:       "trusted proxy honors forwarded-for first entry",
			remoteAddr: "10.0.0.2:40112",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.2"},
			trusted:    []string{"10.0.0.0/8"},
			want:       "198.51.100.9",
		},
		{
			name:       "trusted proxy falls back to real-ip",
			remoteAddr: "10.0.0.2:40112",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			trusted:    []string{"10.0.0.2"},
			want:       "198.51.100.9",
		},
		{
			name:       "untrusted peer ignores forged header",
			remoteAddr: "203.0.113.7:40112",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.9"},
			trusted:    []string{"10.0.0.0/8"},
			want:       "203.0.113.7",
		},
		{
			name:       "garbage forwarded-for falls back to peer",
			remoteAddr: "10.0.0.2:40112",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			trusted:    []string{"10.0.0.0/8"},
			want:       "10.0.0.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trusted))
		})
	}
}
