package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/storefront-gateway/internal/service"
	"github.com/spec-kit/storefront-gateway/internal/session"
	apperrors "github.com/spec-kit/storefront-gateway/pkg/util"
)

// CatalogHandler serves the proxied catalog listings.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// Products handles the product listing routes.
func (h *CatalogHandler) Products(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}

	products, err := h.catalog.Products(c.UserContext(), claims)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// Categories handles GET /catalog/categories.
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	claims, ok := session.FromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("no session")
	}

	categories, err := h.catalog.Categories(c.UserContext(), claims)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": categories})
}
