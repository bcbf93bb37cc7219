package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"littlegrow/internal/services"
	"littlegrow/pkg/logger"
)

// OrderHandler serves the customer's view of their orders.
type OrderHandler struct {
	orders       *services.OrderService
	cancellation *services.CancellationService
	validate     *validator.Validate
	log          *logger.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *services.OrderService, cancellation *services.CancellationService, log *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders:       orders,
		cancellation: cancellation,
		validate:     validator.New(),
		log:          log,
	}
}

// RegisterRoutes registers the order routes with the Fiber app.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleGetOrders)
	orderRoutes.Post("/cancellation", h.HandleCancelOrder)
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleGetOrders lists the caller's orders, newest first.
func (h *OrderHandler) HandleGetOrders(c *fiber.Ctx) error {
	orders, err := h.orders.ListOwnOrders(requestContext(c, h.log), identity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(orders)
}

// HandleGetOrderByID retrieves a single order owned by the caller.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(requestContext(c, h.log), c.Params("id"), identity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(order)
}

// CancelOrderRequest names the order to cancel.
type CancelOrderRequest struct {
	OrderID string `json:"order_id" validate:"required"`
}

// HandleCancelOrder cancels a PENDING order. Repeats and unknown ids succeed
// without changing anything.
func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	var req CancelOrderRequest
	if ok, err := bindJSON(c, h.validate, &req); !ok {
		return err
	}

	res, err := h.cancellation.Cancel(requestContext(c, h.log), req.OrderID, identity(c))
	if err != nil {
		return writeError(c, h.log, err)
	}

	message := "Order cancelled"
	if !res.Applied {
		message = "Order unchanged"
	}
	return c.JSON(fiber.Map{
		"message": message,
		"applied": res.Applied,
		"order":   res.Order,
	})
}
