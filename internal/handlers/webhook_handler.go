package handlers

import (
	"github.com/gofiber/fiber/v2"

	"littlegrow/internal/services"
	"littlegrow/pkg/apperrors"
	"littlegrow/pkg/logger"
)

// WebhookHandler receives payment status callbacks. The route is public; the
// payload signature is the only authentication.
type WebhookHandler struct {
	service *services.WebhookService
	log     *logger.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *services.WebhookService, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, log: log}
}

func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/midtrans", h.HandleNotification)
}

// HandleNotification answers 200 for accepted or ignored callbacks, 4xx for
// malformed or unauthenticated ones and 5xx when the processor should retry.
func (h *WebhookHandler) HandleNotification(c *fiber.Ctx) error {
	var notification services.PaymentNotification
	if err := c.BodyParser(&notification); err != nil {
		return invalidBody(c, err)
	}
	if notification.OrderID == "" || notification.SignatureKey == "" {
		return writeError(c, h.log, apperrors.New(apperrors.CodeValidation, "order_id and signature_key are required"))
	}

	result, err := h.service.Handle(requestContext(c, h.log), notification)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "Notification processed",
		"result":  result.Result,
	})
}
