// Package session configures the scs session manager that carries flash
// notifications between a mutation and the page it redirects to.
package session

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "catalog_admin_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// Lifetime bounds how long an idle dashboard keeps its session.
	Lifetime = 12 * time.Hour

	// Keys of the flash notification.
	KeyFlash     = "flash"
	KeyFlashType = "flash_type"
)

// New creates a session manager backed by the default in-memory store.
// Sessions only hold pending notifications, so losing them on restart is
// harmless.
func New(secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = Lifetime
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = CookiePath
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}
