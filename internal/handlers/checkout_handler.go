package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"littlegrow/internal/services"
	"littlegrow/pkg/logger"
)

// CheckoutHandler turns cart snapshots into orders.
type CheckoutHandler struct {
	service  *services.CheckoutService
	validate *validator.Validate
	log      *logger.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(service *services.CheckoutService, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, validate: validator.New(), log: log}
}

// RegisterRoutes registers the checkout route on an authenticated router.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)
}

type checkoutItemRequest struct {
	ID       string          `json:"id" validate:"required"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gt=0"`
}

// CheckoutRequest is the cart snapshot posted by the storefront.
type CheckoutRequest struct {
	Amount decimal.Decimal       `json:"amount"`
	Items  []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

// HandleCheckout creates a PENDING order and returns the payment token.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}

	items := make([]services.CheckoutItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.CheckoutItem{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	result, err := h.service.Checkout(requestContext(c, h.log), services.CheckoutRequest{
		Customer: identity(c),
		Items:    items,
		Amount:   req.Amount,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
