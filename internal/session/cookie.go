package session

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	cookieNamePlain  = "storefront_session"
	cookieNameSecure = "__Secure-storefront_session"
)

// CookieName returns the session cookie name for the deployment mode.
// Browsers only accept the __Secure- prefix over HTTPS, so development uses
// the plain variant.
func CookieName(isProduction bool) string {
	if isProduction {
		return cookieNameSecure
	}
	return cookieNamePlain
}

// IsSecureName reports whether the name mandates the Secure attribute.
func IsSecureName(name string) bool {
	return strings.HasPrefix(name, "__Secure-")
}

// CookieAdapter reads and writes the session token as an HTTP cookie.
type CookieAdapter struct {
	production bool
	ttl        time.Duration
}

// NewCookieAdapter builds the adapter. ttl is the outer cookie lifetime,
// independent of the inner access-token expiry.
func NewCookieAdapter(production bool, ttl time.Duration) *CookieAdapter {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &CookieAdapter{production: production, ttl: ttl}
}

// Read returns the raw session token from the request, checking the name for
// the current mode first and falling back to the other variant so tokens
// issued under a different mode are still honored.
func (a *CookieAdapter) Read(c *fiber.Ctx) (string, bool) {
	for _, name := range []string{CookieName(a.production), CookieName(!a.production)} {
		if v := c.Cookies(name); v != "" {
			return v, true
		}
	}
	return "", false
}

// Write replaces the session cookie with the given token. Re-issuing always
// overwrites the previous value; last write wins.
func (a *CookieAdapter) Write(c *fiber.Ctx, token string) {
	name := CookieName(a.production)
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(a.ttl),
		HTTPOnly: true,
		Secure:   a.production || IsSecureName(name),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear expires both cookie name variants, signing the browser out.
func (a *CookieAdapter) Clear(c *fiber.Ctx) {
	for _, name := range []string{cookieNamePlain, cookieNameSecure} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Now().Add(-time.Hour),
			HTTPOnly: true,
			Secure:   IsSecureName(name),
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}
