package session

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-gateway/internal/domain"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

const claimsKey = "session_claims"

// LoginRoute is where unauthenticated navigation is sent. The reauth flag
// tells the login page the previous session became unusable.
const LoginRoute = "/login?reauth=1"

// Refresher rotates an expired access token into fresh claims plus their
// encoded token. Implemented by the refresh service.
type Refresher interface {
	Refresh(ctx context.Context, current *Claims) (*Claims, string, error)
}

// Middleware resolves the session cookie into claims for every request,
// transparently refreshing an expired access token along the way.
type Middleware struct {
	codec   *Codec
	cookies *CookieAdapter
	refresh Refresher
	logger  *zap.Logger
	now     func() time.Time
}

// NewMiddleware constructs the session middleware.
func NewMiddleware(codec *Codec, cookies *CookieAdapter, refresh Refresher, logger *zap.Logger) *Middleware {
	return &Middleware{codec: codec, cookies: cookies, refresh: refresh, logger: logger, now: time.Now}
}

// Handle decodes the cookie, refreshes if needed, and stores the resolved
// claims in request locals. Anonymous requests pass through untouched.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	raw, ok := m.cookies.Read(c)
	if !ok {
		return c.Next()
	}

	claims, err := m.codec.Decode(raw)
	if err != nil {
		// Tampered or outer-expired token: reset to logged-out state.
		m.logger.Warn("discarding unusable session cookie", zap.Error(err))
		m.cookies.Clear(c)
		return c.Next()
	}

	if claims.AccessTokenExpired(m.now()) {
		fresh, token, refreshErr := m.refresh.Refresh(c.UserContext(), claims)
		if refreshErr != nil {
			// The previous cookie stays intact; the error tag lets route
			// gates force re-authentication without corrupting state.
			m.logger.Warn("session refresh failed",
				zap.String("subject_id", claims.SubjectID),
				zap.Error(refreshErr))
			claims.Error = "refresh_failed"
		} else {
			claims = fresh
			m.cookies.Write(c, token)
		}
	}

	c.Locals(claimsKey, claims)
	return c.Next()
}

// FromContext retrieves the resolved claims for the current request.
func FromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

// RequireSession redirects to the login route unless the request carries
// usable claims.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := FromContext(c)
		if !ok || claims.Error != "" {
			return c.Redirect(LoginRoute, fiber.StatusFound)
		}
		return c.Next()
	}
}

// RequireRole permits only the listed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := FromContext(c)
		if !ok || claims.Error != "" {
			return c.Redirect(LoginRoute, fiber.StatusFound)
		}
		if _, exists := allowedSet[claims.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireActiveSubscription permits only accounts whose subscription is
// usable and unexpired.
func RequireActiveSubscription() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := FromContext(c)
		if !ok || claims.Error != "" {
			return c.Redirect(LoginRoute, fiber.StatusFound)
		}
		if !claims.HasActiveSubscription(time.Now()) {
			return apperrors.NewForbidden("active subscription required")
		}
		return c.Next()
	}
}
