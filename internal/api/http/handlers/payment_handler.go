package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-gateway/internal/service"
	"github.com/spec-kit/storefront-gateway/internal/session"
)

// PaymentHandler receives the external payment gateway's callback and
// redirects the browser per the verification outcome.
type PaymentHandler struct {
	payments *service.PaymentService
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Callback handles GET /payment/callback. The gateway sends Status and
// Authority query parameters; casing varies between gateway versions, so
// both variants are read.
func (h *PaymentHandler) Callback(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok || claims.Error != "" {
		return c.Redirect(session.LoginRoute, fiber.StatusFound)
	}

	status := firstQuery(c, "Status", "status")
	authority := firstQuery(c, "Authority", "authority")

	result := h.payments.Verify(c.UserContext(), claims, status, authority)
	if result.Outcome.Succeeded() {
		return c.Redirect("/payment/success?return="+url.QueryEscape(claims.Role.LandingRoute()), fiber.StatusFound)
	}
	return c.Redirect("/payment/failure?return="+url.QueryEscape(claims.Role.LandingRoute()), fiber.StatusFound)
}

func firstQuery(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if v := c.Query(name); v != "" {
			return v
		}
	}
	return ""
}
