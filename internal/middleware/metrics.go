package middleware

import "net/http"

// MetricsAuthMiddleware guards the Prometheus scrape endpoint with its own
// credential, separate from the admin gate so scrapers never hold the
// dashboard password.
type MetricsAuthMiddleware struct {
	cred credential
}

// NewMetricsAuthMiddleware returns an open middleware when both values
// are empty.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{cred: credential{username: username, password: password}}
}

// Handler wraps the scrape handler.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	if !m.cred.set() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := m.cred.check(r); !ok {
			unauthorized(w, "metrics")
			return
		}
		next.ServeHTTP(w, r)
	})
}
