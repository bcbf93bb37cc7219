package handlers

import (
	"github.com/gofiber/fiber/v2"

	"littlegrow/internal/middleware"
)

// Handlers groups every route handler of the API.
type Handlers struct {
	Auth     *AuthHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
	Order    *OrderHandler
	Admin    *AdminHandler
	Cart     *CartHandler
}

// Register mounts the API under router. Only the payment webhook is public.
func Register(router fiber.Router, validator middleware.TokenValidator, h Handlers) {
	h.Webhook.RegisterRoutes(router)

	protected := router.Group("", middleware.AuthRequired(validator))
	h.Auth.RegisterRoutes(protected)
	h.Checkout.RegisterRoutes(protected)
	h.Order.RegisterRoutes(protected)
	h.Cart.RegisterRoutes(protected)

	h.Admin.RegisterRoutes(protected.Group("/admin", middleware.AdminOnly()))
}
