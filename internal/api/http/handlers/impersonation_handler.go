package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-gateway/internal/api/dto"
	"github.com/spec-kit/storefront-gateway/internal/service"
	"github.com/spec-kit/storefront-gateway/internal/session"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

// ImpersonationHandler exposes the admin impersonation actions. These are
// invoked from programmatic UI actions, so failures come back as JSON with
// an HTTP status rather than redirects.
type ImpersonationHandler struct {
	impersonation *service.ImpersonationService
	cookies       *session.CookieAdapter
}

// NewImpersonationHandler constructs the handler.
func NewImpersonationHandler(impersonation *service.ImpersonationService, cookies *session.CookieAdapter) *ImpersonationHandler {
	return &ImpersonationHandler{impersonation: impersonation, cookies: cookies}
}

// Start handles POST /auth/impersonate.
func (h *ImpersonationHandler) Start(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok || claims.Error != "" {
		return apperrors.NewUnauthenticated("no session")
	}

	var req dto.ImpersonateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("userId required", nil)
	}

	next, token, route, err := h.impersonation.Start(c.UserContext(), claims, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAdministrator):
			return apperrors.NewForbidden("administrator role required")
		case errors.Is(err, service.ErrTargetMissing):
			return apperrors.NewNotFound("user", map[string]any{"userId": req.UserID})
		default:
			return apperrors.MapError(err)
		}
	}

	h.cookies.Write(c, token)
	return c.JSON(fiber.Map{"ok": true, "route": route, "subjectId": next.SubjectID})
}

// Stop handles POST /auth/impersonate/stop. When no impersonation is in
// progress the handler falls back to a plain sign-out instead of erroring.
func (h *ImpersonationHandler) Stop(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok || claims.Error != "" {
		return apperrors.NewUnauthenticated("no session")
	}

	restored, token, route, err := h.impersonation.Stop(c.UserContext(), claims)
	if err != nil {
		if errors.Is(err, service.ErrNotImpersonating) {
			h.cookies.Clear(c)
			return c.JSON(fiber.Map{"ok": true, "route": "/login"})
		}
		return apperrors.MapError(err)
	}

	h.cookies.Write(c, token)
	return c.JSON(fiber.Map{"ok": true, "route": route, "subjectId": restored.SubjectID})
}
