package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/catalog-admin/internal/requestctx"
)

// =============================================================================
// Admin Auth
// =============================================================================

// AdminAuthMiddleware gates the dashboard behind a single basic-auth
// credential and records the acting admin in the request context.
type AdminAuthMiddleware struct {
	cred   credential
	logger *slog.Logger
}

// NewAdminAuthMiddleware creates a new admin auth middleware.
// If both username and password are empty, the gate is open and every
// request acts as "anonymous".
func NewAdminAuthMiddleware(username, password string, logger *slog.Logger) *AdminAuthMiddleware {
	return &AdminAuthMiddleware{
		cred:   credential{username: username, password: password},
		logger: logger,
	}
}

// Enabled reports whether credentials are required.
func (m *AdminAuthMiddleware) Enabled() bool {
	return m.cred.set()
}

// Handler returns middleware that requires the admin credential.
//
// Health and static assets stay public for probes and the 401 page.
// /metrics is left to its own scrape credential.
func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cred.set() {
			next.ServeHTTP(w, r.WithContext(requestctx.WithActor(r.Context(), "anonymous")))
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		user, sent, ok := m.cred.check(r)
		if !ok {
			if sent {
				m.logger.Warn("admin auth failed",
					"ip", getClientIP(r),
					"path", r.URL.Path,
					"request_id", requestctx.RequestID(r.Context()),
				)
			}
			unauthorized(w, "catalog admin")
			return
		}

		next.ServeHTTP(w, r.WithContext(requestctx.WithActor(r.Context(), user)))
	})
}

func isPublicPath(path string) bool {
	return path == "/health" || path == "/metrics" || strings.HasPrefix(path, "/static/")
}

// credential is one configured basic-auth username/password pair.
type credential struct {
	username string
	password string
}

// set reports whether the credential is configured. An empty pair means
// the route is open.
func (c credential) set() bool {
	return c.username != "" || c.password != ""
}

// check reads the request's basic auth and compares both halves in
// constant time. sent reports whether any credentials were supplied.
func (c credential) check(r *http.Request) (user string, sent, ok bool) {
	user, pass, sent := r.BasicAuth()
	if !sent {
		return "", false, false
	}
	userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(c.username)) == 1
	passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(c.password)) == 1
	return user, true, userMatch && passMatch
}

// unauthorized sends a 401 response with WWW-Authenticate header.
func unauthorized(w http.ResponseWriter, realm string) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
