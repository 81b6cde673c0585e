// Package csrf protects the dashboard's write routes with double-submit
// tokens: a random value lives in a cookie, and every unsafe request must
// echo it back in the X-CSRF-Token header (htmx, via hx-headers on the
// body) or the csrf_token form field (plain form posts). A cross-origin
// page can make the browser send the cookie but cannot read it.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/catalog-admin/internal/requestctx"
)

const (
	// CookieName is the name of the token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the hidden form field carrying the token.
	FormFieldName = "csrf_token"

	// HeaderName carries the token on htmx requests.
	HeaderName = "X-CSRF-Token"

	tokenBytes   = 32
	cookieMaxAge = 8 * 3600 // one admin working day
)

// GenerateToken returns 32 random bytes, base64 URL-encoded.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ValidateToken compares the cookie and submitted tokens in constant time.
// Empty tokens never match.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// submittedToken prefers the header so multipart uploads are not parsed
// just to find the field.
func submittedToken(r *http.Request) string {
	if token := r.Header.Get(HeaderName); token != "" {
		return token
	}
	return r.FormValue(FormFieldName)
}

// Protect rejects unsafe requests whose token does not match the cookie.
// The body is plain text so htmx error handling can show it as a toast.
func Protect(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(CookieName)
			if err != nil || !ValidateToken(cookie.Value, submittedToken(r)) {
				logger.Warn("csrf validation failed",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", requestctx.RequestID(r.Context()),
				)
				http.Error(w, "Your session expired. Reload the page and try again.", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EnsureToken returns the request's token cookie, issuing a new one when
// the browser has none. Page handlers call it before rendering forms.
func EnsureToken(w http.ResponseWriter, r *http.Request, secure bool) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	token, err := GenerateToken()
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("csrf: generate token: " + err.Error())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}
