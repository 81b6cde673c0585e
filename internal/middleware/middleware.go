// Package middleware contains HTTP middleware for the catalog dashboard.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using Chain.
package middleware

import "net/http"

// Chain wraps h with the given middleware. The first middleware is the
// outermost, so Chain(h, a, b) serves a(b(h)).
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
