package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DukeRupert/catalog-admin/internal/domain"
	"github.com/DukeRupert/catalog-admin/internal/handler"
	"github.com/DukeRupert/catalog-admin/internal/requestctx"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts requests per key in fixed windows. A key's window
// opens on its first request and restarts on the first request after it
// lapses. A background sweep evicts lapsed keys.
type RateLimiter struct {
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]windowCount

	stop     chan struct{}
	stopOnce sync.Once
}

type windowCount struct {
	count int
	start time.Time
}

// NewRateLimiter allows limit requests per key per window. Call Close to
// stop the sweep goroutine.
func NewRateLimiter(limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]windowCount),
		stop:    make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// lapsed reports whether w's window is over at now.
func (rl *RateLimiter) lapsed(w windowCount, now time.Time) bool {
	return now.Sub(w.start) >= rl.window
}

// Allow records a request for key and reports whether it is within the
// limit. Rejected requests do not extend the window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.entries[key]
	if !ok || rl.lapsed(w, now) {
		rl.entries[key] = windowCount{count: 1, start: now}
		return true
	}
	if w.count >= rl.limit {
		return false
	}
	w.count++
	rl.entries[key] = w
	return true
}

// TimeUntilReset is how long key must wait for a fresh window; zero when
// it is not limited.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.entries[key]
	now := rl.now()
	if !ok || rl.lapsed(w, now) {
		return 0
	}
	return rl.window - now.Sub(w.start)
}

// Close stops the sweep goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	evicted := 0
	for key, w := range rl.entries {
		if rl.lapsed(w, now) {
			delete(rl.entries, key)
			evicted++
		}
	}
	if evicted > 0 {
		rl.logger.Debug("rate limiter sweep", "evicted", evicted, "tracked", len(rl.entries))
	}
}

// =============================================================================
// Mutation Rate Limit Middleware
// =============================================================================

// MutationLimitMiddleware rate limits write requests per client IP.
// Reads pass through untouched so browsing is never throttled.
type MutationLimitMiddleware struct {
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewMutationLimitMiddleware creates a new mutation rate limit middleware.
func NewMutationLimitMiddleware(limiter *RateLimiter, logger *slog.Logger) *MutationLimitMiddleware {
	return &MutationLimitMiddleware{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit returns middleware that rate limits non-read requests.
func (m *MutationLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isReadMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := getClientIP(r)
		if m.limiter.Allow(clientIP) {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("mutation rate limit exceeded",
			"ip", clientIP,
			"path", r.URL.Path,
			"method", r.Method,
			"request_id", requestctx.RequestID(r.Context()),
		)

		retryAfter := int(m.limiter.TimeUntilReset(clientIP).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		if isHTMX(r) {
			// Keep the open modal in place; app.js raises the toast.
			w.Header().Set("HX-Reswap", "none")
		}
		handler.ErrorResponse(w, r, m.logger, domain.RateLimit(r.Method+" "+r.URL.Path))
	})
}

func isReadMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// =============================================================================
// Helpers
// =============================================================================

// getClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection's address.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if clientIP := strings.TrimSpace(first); clientIP != "" {
			return clientIP
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
