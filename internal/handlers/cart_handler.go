package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"littlegrow/internal/services"
	"littlegrow/pkg/logger"
)

// CartHandler exposes the caller's server-side cart.
type CartHandler struct {
	service  *services.CartService
	validate *validator.Validate
	log      *logger.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(service *services.CartService, log *logger.Logger) *CartHandler {
	return &CartHandler{service: service, validate: validator.New(), log: log}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cart := router.Group("/cart")
	cart.Get("/", h.HandleGetCart)
	cart.Delete("/", h.HandleClearCart)
	cart.Post("/items", h.HandleAddItem)
	cart.Patch("/items/:productId", h.HandleUpdateItem)
	cart.Delete("/items/:productId", h.HandleRemoveItem)
}

type addCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.service.GetCart(requestContext(c, h.log), identity(c).UserID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleAddItem(c *fiber.Ctx) error {
	var req addCartItemRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.service.AddItem(requestContext(c, h.log), identity(c).UserID, req.ProductID, req.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cart)
}

func (h *CartHandler) HandleUpdateItem(c *fiber.Ctx) error {
	var req updateCartItemRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}
	cart, err := h.service.UpdateItem(requestContext(c, h.log), identity(c).UserID, c.Params("productId"), req.Quantity)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleRemoveItem(c *fiber.Ctx) error {
	cart, err := h.service.RemoveItem(requestContext(c, h.log), identity(c).UserID, c.Params("productId"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(cart)
}

func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.service.Clear(requestContext(c, h.log), identity(c).UserID); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
