package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/catalog-admin/internal/requestctx"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns every request an ID, honoring a well-formed incoming
// X-Request-ID from a trusted proxy, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), id)))
	})
}

// RequestLoggingMiddleware writes one log line per dashboard request.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

// NewRequestLoggingMiddleware creates a new request logging middleware.
func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{logger: logger}
}

// quietPrefixes are probe and asset paths that would drown out page traffic.
var quietPrefixes = []string{"/health", "/metrics", "/static/"}

// Handler must sit inside RequestID and the admin gate so the request ID
// and actor are on the context. htmx requests are tagged with their swap
// target, which tells list fragment refreshes apart from full page loads.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, prefix := range quietPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		start := time.Now()
		rec := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", sanitizePath(r.URL.Path, r.URL.RawQuery)),
			slog.Int("status", rec.statusCode),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
			slog.String("ip", getClientIP(r)),
			slog.String("user_agent", r.UserAgent()),
		}
		if id := requestctx.RequestID(r.Context()); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if actor := requestctx.Actor(r.Context()); actor != "" {
			attrs = append(attrs, slog.String("actor", actor))
		}
		if isHTMX(r) {
			attrs = append(attrs, slog.Bool("htmx", true), slog.String("hx_target", r.Header.Get("HX-Target")))
		}

		level := slog.LevelInfo
		if rec.statusCode >= 500 {
			level = slog.LevelWarn
		}
		m.logger.LogAttrs(r.Context(), level, "request", attrs...)
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// sensitiveParams are query keys whose values never reach the log.
var sensitiveParams = map[string]bool{
	"token": true, "code": true, "key": true, "secret": true, "password": true,
	"api_key": true, "apikey": true, "access_token": true, "refresh_token": true,
}

// sanitizePath keeps the list view's query (search, sort, page) readable
// in logs while redacting credentials. Keys without a value are dropped.
func sanitizePath(path, rawQuery string) string {
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		key, _, ok := strings.Cut(pair, "=")
		switch {
		case !ok:
			continue
		case sensitiveParams[strings.ToLower(key)]:
			kept = append(kept, key+"=[REDACTED]")
		default:
			kept = append(kept, pair)
		}
	}
	if len(kept) == 0 {
		return path
	}
	return path + "?" + strings.Join(kept, "&")
}
