package services

import (
	"context"
	"strings"

	"littlegrow/internal/metrics"
	"littlegrow/internal/models"
	"littlegrow/pkg/apperrors"
	"littlegrow/pkg/logger"
	"littlegrow/pkg/midtrans"
)

// PaymentNotification is the processor's asynchronous status callback.
type PaymentNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	TransactionStatus string `json:"transaction_status"`
	Status            string `json:"status"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key"`
}

// PaymentStatus is the reported transaction status, lowercased.
func (n PaymentNotification) PaymentStatus() string {
	status := n.TransactionStatus
	if status == "" {
		status = n.Status
	}
	return strings.ToLower(strings.TrimSpace(status))
}

// Successful reports whether the callback confirms the money was captured.
func (n PaymentNotification) Successful() bool {
	switch n.PaymentStatus() {
	case "settlement":
		return true
	case "capture":
		fraud := strings.ToLower(n.FraudStatus)
		return fraud != "challenge" && fraud != "deny"
	}
	return false
}

// Webhook handling results.
const (
	WebhookFulfilled = "fulfilled"
	WebhookDuplicate = "duplicate"
	WebhookNotFound  = "not_found"
	WebhookIgnored   = "ignored"
	WebhookRejected  = "rejected"
	WebhookFailed    = "failed"
)

// WebhookResult tells the caller what a callback did.
type WebhookResult struct {
	Result string        `json:"result"`
	Order  *models.Order `json:"order,omitempty"`
}

// WebhookService authenticates payment callbacks and drives fulfillment.
// Redelivered callbacks are absorbed by the fulfillment status guard.
type WebhookService struct {
	serverKey   string
	fulfillment *FulfillmentService
	log         *logger.Logger
	metrics     *metrics.Metrics
}

// NewWebhookService creates a new WebhookService.
func NewWebhookService(serverKey string, fulfillment *FulfillmentService, log *logger.Logger, m *metrics.Metrics) *WebhookService {
	return &WebhookService{serverKey: serverKey, fulfillment: fulfillment, log: log, metrics: m}
}

// Handle verifies the callback signature and, for successful payments, runs
// the fulfillment transaction.
func (s *WebhookService) Handle(ctx context.Context, n PaymentNotification) (*WebhookResult, error) {
	ctx = s.log.WithFields(ctx, map[string]any{
		"order_id":       n.OrderID,
		"payment_status": n.PaymentStatus(),
	})

	if !midtrans.VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, s.serverKey, n.SignatureKey) {
		s.metrics.ObserveWebhook(WebhookRejected)
		s.log.Warn(ctx, "payment callback rejected: signature mismatch", nil)
		return nil, apperrors.New(apperrors.CodeInvalidSignature, "signature key does not match")
	}

	if !n.Successful() {
		s.metrics.ObserveWebhook(WebhookIgnored)
		s.log.Info(ctx, "payment callback ignored")
		return &WebhookResult{Result: WebhookIgnored}, nil
	}

	res, err := s.fulfillment.Fulfill(ctx, FulfillRequest{OrderID: n.OrderID, Trigger: TriggerWebhook})
	if err != nil {
		s.metrics.ObserveWebhook(WebhookFailed)
		return nil, err
	}

	result := WebhookFulfilled
	switch {
	case res.Order == nil:
		result = WebhookNotFound
	case !res.Applied:
		result = WebhookDuplicate
	}
	s.metrics.ObserveWebhook(result)
	return &WebhookResult{Result: result, Order: res.Order}, nil
}
