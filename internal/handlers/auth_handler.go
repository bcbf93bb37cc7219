package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// AuthHandler reports who the bearer token belongs to. Tokens are issued by
// the storefront's auth service; this service only verifies them.
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// RegisterRoutes registers the authentication routes on an authenticated router.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/auth/me", h.HandleWhoAmI)
}

// HandleWhoAmI returns the identity decoded from the caller's token.
func (h *AuthHandler) HandleWhoAmI(c *fiber.Ctx) error {
	return c.JSON(identity(c))
}
