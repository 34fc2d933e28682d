// Package middleware provides gin middleware shared by the HTTP surface.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kart-io/verdict-x/pkg/utils/errors"
	"github.com/kart-io/verdict-x/pkg/utils/response"
)

// RateLimiter is the storage contract for the sliding-window limiter.
type RateLimiter interface {
	// Allow reports whether a request with the given key may proceed. A
	// rejected request is never recorded, so hammering a full window does
	// not extend the lockout.
	Allow(ctx context.Context, key string) (bool, error)

	// Reset clears the window for the given key.
	Reset(ctx context.Context, key string) error
}

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Limiter is the storage backend. Required.
	Limiter RateLimiter

	// SkipPaths lists paths exempt from rate limiting.
	SkipPaths []string

	// TrustedProxies lists proxy IPs or CIDR ranges whose forwarding
	// headers are honored. When empty, X-Forwarded-For and X-Real-IP are
	// ignored and the peer address is used directly.
	TrustedProxies []string

	// OnReject, when set, is called once per rejected request.
	OnReject func(key string)
}

// RateLimit returns a middleware enforcing a per-client sliding window.
// When the backend errors the request is allowed through; availability wins
// over strictness here.
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		key := clientIP(c.Request, config.TrustedProxies)

		allowed, err := config.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Errorw("rate limiter backend error", "error", err.Error(), "key", key)
			c.Next()
			return
		}

		if !allowed {
			logger.Warnw("rate limit exceeded", "key", key, "path", c.Request.URL.Path)
			if config.OnReject != nil {
				config.OnReject(key)
			}
			response.Fail(c, errors.ErrRateLimitExceeded)
			return
		}

		c.Next()
	}
}

// clientIP resolves the client address for rate limiting. Forwarding headers
// are only honored when the direct peer is a trusted proxy, which prevents
// limit evasion through forged headers.
func clientIP(req *http.Request, trustedProxies []string) string {
	remoteIP := remoteIP(req)

	if !isTrustedProxy(remoteIP, trustedProxies) {
		return remoteIP
	}

	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client.
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(req.Header.Get("X-Real-IP")); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}
	return remoteIP
}

func remoteIP(req *http.Request) string {
	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return ip
}

func isTrustedProxy(ip string, trusted []string) bool {
	if len(trusted) == 0 {
		return false
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, entry := range trusted {
		if !strings.Contains(entry, "/") {
			if entry == ip {
				return true
			}
			continue
		}
		_, network, err := net.ParseCIDR(entry)
		if err != nil {
			logger.Warnw("invalid CIDR in trusted proxies", "cidr", entry, "error", err.Error())
			continue
		}
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}

// MemoryRateLimiter keeps per-key request timestamps in process memory and
// enforces a sliding window over them.
type MemoryRateLimiter struct {
	limit  int
	window time.Duration
	store  *sync.Map

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// windowEntry holds the timestamps recorded for one key.
type windowEntry struct {
	mu       sync.Mutex
	requests []time.Time
	lastSeen time.Time
}

// NewMemoryRateLimiter creates a memory-backed limiter and starts its
// background cleanup goroutine.
func NewMemoryRateLimiter(limit int, window time.Duration) *MemoryRateLimiter {
	m := &MemoryRateLimiter{
		limit:       limit,
		window:      window,
		store:       &sync.Map{},
		stopCleanup: make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

// Allow purges timestamps outside the window, rejects when the window is
// full, and records the request otherwise.
func (m *MemoryRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	value, _ := m.store.LoadOrStore(key, &windowEntry{
		requests: make([]time.Time, 0, m.limit),
	})
	entry := value.(*windowEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.lastSeen = now
	entry.requests = purgeExpired(entry.requests, now.Add(-m.window))

	if len(entry.requests) >= m.limit {
		return false, nil
	}

	entry.requests = append(entry.requests, now)
	return true, nil
}

// Reset clears the window for the given key.
func (m *MemoryRateLimiter) Reset(_ context.Context, key string) error {
	m.store.Delete(key)
	return nil
}

// Stop terminates the cleanup goroutine.
func (m *MemoryRateLimiter) Stop() {
	m.cleanupOnce.Do(func() {
		close(m.stopCleanup)
	})
}

func (m *MemoryRateLimiter) cleanupLoop() {
	ticker := time.NewTicker(m.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.dropIdleEntries()
		case <-m.stopCleanup:
			return
		}
	}
}

// dropIdleEntries removes keys not seen for two full windows.
func (m *MemoryRateLimiter) dropIdleEntries() {
	threshold := time.Now().Add(-2 * m.window)

	m.store.Range(func(key, value interface{}) bool {
		entry := value.(*windowEntry)
		entry.mu.Lock()
		idle := entry.lastSeen.Before(threshold)
		entry.mu.Unlock()

		if idle {
			m.store.Delete(key)
		}
		return true
	})
}

// purgeExpired drops timestamps at or before the cutoff. Timestamps are
// appended in order, so the first retained index bounds the valid suffix.
func purgeExpired(requests []time.Time, cutoff time.Time) []time.Time {
	for i, t := range requests {
		if t.After(cutoff) {
			return requests[i:]
		}
	}
	return requests[:0]
}

// RedisRateLimiter keeps per-key windows in a Redis sorted set so replicas
// share one budget. Scores are request timestamps in nanoseconds.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// allowScript purges, counts, and conditionally records in one atomic step.
// Doing the count client-side between two round trips would let concurrent
// requests read the same stale count and over-admit.
//
// KEYS[1]: window key; ARGV: min score, limit, score, member, ttl ms.
// Returns 1 when admitted, 0 when rejected (nothing recorded).
var allowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '0', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[2]) then
	return 0
end
redis.call('ZADD', KEYS[1], ARGV[3], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return 1
`)

// NewRedisRateLimiter creates a Redis-backed limiter.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
	}
}

// Allow runs the purge/count/record script. The member carries a ULID so two
// requests landing on the same nanosecond still count as two entries.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()

	admitted, err := allowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		now.Add(-r.window).UnixNano(),
		r.limit,
		now.UnixNano(),
		fmt.Sprintf("%d-%s", now.UnixNano(), ulid.Make()),
		(2 * r.window).Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis script error: %w", err)
	}

	return admitted == 1, nil
}

// Reset clears the window for the given key.
func (r *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
