package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"littlegrow/internal/models"
	"littlegrow/internal/services"
	"littlegrow/pkg/logger"
)

// AdminHandler serves the administrator's order and inventory views.
type AdminHandler struct {
	orders   *services.OrderService
	products *services.ProductService
	validate *validator.Validate
	log      *logger.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(orders *services.OrderService, products *services.ProductService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, products: products, validate: validator.New(), log: log}
}

// RegisterRoutes registers the admin routes on a /admin router already
// restricted to administrators.
func (h *AdminHandler) RegisterRoutes(admin fiber.Router) {
	admin.Get("/orders", h.HandleListOrders)
	admin.Patch("/orders/:id", h.HandleUpdateOrderStatus)
	admin.Get("/stats", h.HandleStats)
	admin.Get("/inventory", h.HandleInventory)
	admin.Get("/inventory/:id", h.HandleGetProduct)
}

func (h *AdminHandler) HandleListOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListAllOrders(requestContext(c, h.log))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(orders)
}

// UpdateOrderStatusRequest is the administrator's status edit.
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=PENDING COMPLETED CANCELLED"`
}

// HandleUpdateOrderStatus applies a status edit through the order state machine.
func (h *AdminHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	var req UpdateOrderStatusRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}

	res, err := h.orders.SetStatus(requestContext(c, h.log), c.Params("id"), req.Status, identity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Order status is " + string(res.Order.Status),
		"applied": res.Applied,
		"order":   res.Order,
	})
}

func (h *AdminHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.orders.Stats(requestContext(c, h.log))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(stats)
}

func (h *AdminHandler) HandleInventory(c *fiber.Ctx) error {
	products, err := h.products.ListInventory(requestContext(c, h.log))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(products)
}

func (h *AdminHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.products.GetProduct(requestContext(c, h.log), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(product)
}
