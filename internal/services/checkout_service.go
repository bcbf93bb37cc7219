package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"littlegrow/internal/database"
	"littlegrow/internal/events"
	"littlegrow/internal/models"
	"littlegrow/internal/notifications"
	"littlegrow/internal/repositories"
	"littlegrow/pkg/apperrors"
	"littlegrow/pkg/logger"
	"littlegrow/pkg/midtrans"
)

// PaymentProcessor issues payment tokens for new orders.
type PaymentProcessor interface {
	CreateTransactionToken(ctx context.Context, req midtrans.TransactionRequest) (*midtrans.TransactionResponse, error)
}

// CheckoutItem is one line of the cart snapshot submitted at checkout.
type CheckoutItem struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
}

// CheckoutRequest is a cart snapshot plus the total the client computed.
type CheckoutRequest struct {
	Customer models.Identity
	Items    []CheckoutItem
	Amount   decimal.Decimal
}

// CheckoutResult is returned to the client to open the payment page.
type CheckoutResult struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// CheckoutService turns a cart snapshot into a PENDING order and a payment token.
type CheckoutService struct {
	db        *database.Client
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	processor PaymentProcessor
	timeout   time.Duration
	effects   sideEffects
	opsEmail  string
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(
	db *database.Client,
	orders repositories.OrderRepository,
	products repositories.ProductRepository,
	processor PaymentProcessor,
	processorTimeout time.Duration,
	notifier Notifier,
	publisher events.Publisher,
	publishTimeout time.Duration,
	log *logger.Logger,
	opsEmail string,
) *CheckoutService {
	if processorTimeout <= 0 {
		processorTimeout = 10 * time.Second
	}
	return &CheckoutService{
		db:        db,
		orders:    orders,
		products:  products,
		processor: processor,
		timeout:   processorTimeout,
		effects:   newSideEffects(notifier, publisher, publishTimeout, log),
		opsEmail:  opsEmail,
	}
}

func validateCheckout(req CheckoutRequest) error {
	if req.Customer.UserID == "" {
		return apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if len(req.Items) == 0 {
		return apperrors.New(apperrors.CodeValidation, "cart is empty")
	}
	sum := decimal.Zero
	for i, item := range req.Items {
		if item.ProductID == "" {
			return apperrors.Newf(apperrors.CodeValidation, "item %d has no product id", i)
		}
		if item.Quantity <= 0 {
			return apperrors.Newf(apperrors.CodeValidation, "quantity for product %s must be positive", item.ProductID)
		}
		if item.Price.IsNegative() {
			return apperrors.Newf(apperrors.CodeValidation, "price for product %s must not be negative", item.ProductID)
		}
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	if !sum.Equal(req.Amount) {
		return apperrors.New(apperrors.CodeValidation, "total amount does not match cart items").
			WithDetails(map[string]string{"expected": sum.String(), "received": req.Amount.String()})
	}
	return nil
}

// Checkout persists a PENDING order with its line items in one transaction
// and then asks the payment processor for a token. A processor failure leaves
// the order PENDING and is reported with the order id in the error details.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        req.Customer.UserID,
		CustomerName:  req.Customer.Username,
		CustomerEmail: req.Customer.Email,
		TotalPrice:    req.Amount,
		Status:        models.OrderStatusPending,
	}
	ids := make([]string, 0, len(req.Items))
	for _, item := range req.Items {
		ids = append(ids, item.ProductID)
		order.Items = append(order.Items, models.OrderLineItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Quantity:    item.Quantity,
			Price:       item.Price,
		})
	}
	ctx = s.effects.log.WithFields(ctx, map[string]any{"order_id": order.ID, "user_id": order.UserID})

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		missing, err := s.products.WithTx(tx).MissingIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return apperrors.New(apperrors.CodeValidation, "cart contains unknown products").
				WithDetails(map[string][]string{"unknown_products": missing})
		}
		return s.orders.WithTx(tx).Create(ctx, order)
	})
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to create order")
	}
	s.effects.log.Info(ctx, "order created")
	s.effects.notify(ctx, func() (notifications.Message, error) { return notifications.NewOrderMessage(order, s.opsEmail) })
	s.effects.publish(ctx, events.TypeOrderCreated, order, TriggerCustomer)

	tokenCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.processor.CreateTransactionToken(tokenCtx, transactionRequest(order))
	if err != nil {
		s.effects.log.Warn(ctx, "payment token request failed; order stays PENDING", err)
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "payment processor request failed").
			WithDetails(map[string]string{"order_id": order.ID})
	}

	if err := s.orders.SetPaymentToken(ctx, order.ID, resp.Token); err != nil {
		s.effects.log.Warn(ctx, "failed to store payment token", err)
	}
	return &CheckoutResult{OrderID: order.ID, Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// transactionRequest converts an order into the processor's whole-unit amounts.
// Item details are omitted when their rounded prices no longer add up to the
// gross amount, since the processor rejects a mismatched breakdown.
func transactionRequest(order *models.Order) midtrans.TransactionRequest {
	gross := order.TotalPrice.Round(0).IntPart()
	req := midtrans.TransactionRequest{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     order.ID,
			GrossAmount: gross,
		},
	}
	var itemsTotal int64
	for _, item := range order.Items {
		price := item.Price.Round(0).IntPart()
		itemsTotal += price * int64(item.Quantity)
		req.ItemDetails = append(req.ItemDetails, midtrans.ItemDetail{
			ID:       item.ProductID,
			Name:     item.ProductName,
			Price:    price,
			Quantity: item.Quantity,
		})
	}
	if itemsTotal != gross {
		req.ItemDetails = nil
	}
	if order.CustomerName != "" || order.CustomerEmail != "" {
		req.CustomerDetails = &midtrans.CustomerDetails{FirstName: order.CustomerName, Email: order.CustomerEmail}
	}
	return req
}
