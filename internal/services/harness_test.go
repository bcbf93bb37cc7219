package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"littlegrow/internal/database"
	"littlegrow/internal/events"
	"littlegrow/internal/metrics"
	"littlegrow/internal/models"
	"littlegrow/internal/notifications"
	"littlegrow/internal/repositories"
	"littlegrow/internal/services"
	"littlegrow/internal/testutil"
	"littlegrow/pkg/logger"
	"littlegrow/pkg/midtrans"
)

const (
	testServerKey      = "SB-Mid-server-test"
	testOpsEmail       = "ops@littlegrow.local"
	testPublishTimeout = 100 * time.Millisecond
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notifications.Message
}

func (n *recordingNotifier) Dispatch(msg notifications.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) kinds() []notifications.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	kinds := make([]notifications.Kind, 0, len(n.sent))
	for _, msg := range n.sent {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// stalledBroker accepts a publish and never answers, like a blocked connection.
type stalledBroker struct {
	mu        sync.Mutex
	abandoned int
}

func (b *stalledBroker) Publish(ctx context.Context, _, _ string, _ []byte) error {
	<-ctx.Done()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.abandoned++
	return ctx.Err()
}

func (b *stalledBroker) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.abandoned
}

type fakeProcessor struct {
	mu       sync.Mutex
	requests []midtrans.TransactionRequest
	err      error
}

func (p *fakeProcessor) CreateTransactionToken(ctx context.Context, req midtrans.TransactionRequest) (*midtrans.TransactionResponse, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("processor call without deadline")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.err != nil {
		return nil, p.err
	}
	return &midtrans.TransactionResponse{Token: "snap-" + req.TransactionDetails.OrderID, RedirectURL: "https://pay.example/" + req.TransactionDetails.OrderID}, nil
}

type harness struct {
	db           *database.Client
	orders       repositories.OrderRepository
	products     repositories.ProductRepository
	notifier     *recordingNotifier
	publisher    *recordingPublisher
	processor    *fakeProcessor
	metrics      *metrics.Metrics
	checkout     *services.CheckoutService
	fulfillment  *services.FulfillmentService
	cancellation *services.CancellationService
	webhook      *services.WebhookService
	orderService *services.OrderService
}

func newHarness(t *testing.T, adminCompleteAdjustsStock bool) *harness {
	t.Helper()

	h := &harness{
		db:        testutil.NewTestDB(t),
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
		processor: &fakeProcessor{},
		metrics:   metrics.New(prometheus.NewRegistry()),
	}
	h.orders = repositories.NewGORMOrderRepository(h.db.DB())
	h.products = repositories.NewGORMProductRepository(h.db.DB())
	log := logger.Nop()

	h.checkout = services.NewCheckoutService(h.db, h.orders, h.products, h.processor, time.Second, h.notifier, h.publisher, testPublishTimeout, log, testOpsEmail)
	h.fulfillment = services.NewFulfillmentService(h.db, h.orders, h.products, h.notifier, h.publisher, testPublishTimeout, log, h.metrics)
	h.cancellation = services.NewCancellationService(h.db, h.orders, h.notifier, h.publisher, testPublishTimeout, log, h.metrics, testOpsEmail)
	h.webhook = services.NewWebhookService(testServerKey, h.fulfillment, log, h.metrics)
	h.orderService = services.NewOrderService(h.orders, h.fulfillment, h.cancellation, adminCompleteAdjustsStock)
	return h
}

var customer = models.Identity{UserID: "user-1", Username: "sarwa", Email: "sarwa@example.com", Role: models.RoleCustomer}

var admin = models.Identity{UserID: "admin-1", Username: "root", Role: models.RoleAdmin}

// placeOrder checks out qty units of productID at price each.
func (h *harness) placeOrder(t *testing.T, productID string, price int64, qty int) string {
	t.Helper()
	res, err := h.checkout.Checkout(context.Background(), services.CheckoutRequest{
		Customer: customer,
		Items:    []services.CheckoutItem{{ProductID: productID, Name: "Plant", Price: decimal.NewFromInt(price), Quantity: qty}},
		Amount:   decimal.NewFromInt(price * int64(qty)),
	})
	require.NoError(t, err)
	return res.OrderID
}

func (h *harness) order(t *testing.T, id string) *models.Order {
	t.Helper()
	order, err := h.orders.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func signedNotification(orderID, status, grossAmount string) services.PaymentNotification {
	return services.PaymentNotification{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       grossAmount,
		TransactionStatus: status,
		SignatureKey:      midtrans.SignatureKey(orderID, "200", grossAmount, testServerKey),
	}
}

func decimalInt(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}
