package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-gateway/internal/api/dto"
	"github.com/spec-kit/storefront-gateway/internal/service"
	"github.com/spec-kit/storefront-gateway/internal/session"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

// SessionHandler exposes login, logout, refresh and session introspection.
type SessionHandler struct {
	auth    *service.AuthService
	refresh *service.RefreshService
	cookies *session.CookieAdapter
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(auth *service.AuthService, refresh *service.RefreshService, cookies *session.CookieAdapter) *SessionHandler {
	return &SessionHandler{auth: auth, refresh: refresh, cookies: cookies}
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	claims, token, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthenticated("invalid credentials")
		}
		return apperrors.MapError(err)
	}

	h.cookies.Write(c, token)
	return c.JSON(fiber.Map{"ok": true, "route": claims.Role.LandingRoute()})
}

// Logout handles POST /auth/logout. Deleting the cookie is the whole
// sign-out; there is no server-side session to revoke.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	claims, _ := session.FromContext(c)
	h.auth.Logout(c.UserContext(), claims)
	h.cookies.Clear(c)
	return c.JSON(fiber.Map{"ok": true})
}

// Refresh handles POST /auth/refresh, an explicit rotation the UI can call
// ahead of expiry.
func (h *SessionHandler) Refresh(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}

	fresh, token, err := h.refresh.Refresh(c.UserContext(), claims)
	if err != nil {
		if errors.Is(err, service.ErrNoRefreshToken) {
			return apperrors.NewUnauthenticated("no usable refresh token")
		}
		return apperrors.MapError(err)
	}

	h.cookies.Write(c, token)
	return c.JSON(fiber.Map{"ok": true, "route": fresh.Role.LandingRoute()})
}

// Session handles GET /auth/session.
func (h *SessionHandler) Session(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok || claims.Error != "" {
		return apperrors.NewUnauthenticated("no session")
	}

	return c.JSON(fiber.Map{"ok": true, "session": dto.SessionResponse{
		SubjectID:             claims.SubjectID,
		Role:                  claims.Role.String(),
		SubscriptionStatus:    string(claims.SubscriptionStatus),
		SubscriptionExpiresAt: claims.SubscriptionExpiresAt,
		Impersonating:         claims.Impersonating,
	}})
}
