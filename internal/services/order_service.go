package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"littlegrow/internal/models"
	"littlegrow/internal/repositories"
	"littlegrow/pkg/apperrors"
)

// OrderService handles order lookups and administrator overrides.
type OrderService struct {
	orders       repositories.OrderRepository
	fulfillment  *FulfillmentService
	cancellation *CancellationService
	// adminCompleteAdjustsStock makes an administrator's COMPLETED edit
	// decrement inventory like a settled payment does.
	adminCompleteAdjustsStock bool
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders repositories.OrderRepository,
	fulfillment *FulfillmentService,
	cancellation *CancellationService,
	adminCompleteAdjustsStock bool,
) *OrderService {
	return &OrderService{
		orders:                    orders,
		fulfillment:               fulfillment,
		cancellation:              cancellation,
		adminCompleteAdjustsStock: adminCompleteAdjustsStock,
	}
}

// GetOrder returns an order visible to requester: its owner or any administrator.
func (s *OrderService) GetOrder(ctx context.Context, id string, requester models.Identity) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to load order")
	}
	if order == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "order %s not found", id)
	}
	if !requester.IsAdmin() && order.UserID != requester.UserID {
		return nil, apperrors.New(apperrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// ListOwnOrders returns the requester's orders, newest first.
func (s *OrderService) ListOwnOrders(ctx context.Context, requester models.Identity) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, requester.UserID)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to list orders")
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to list orders")
	}
	return orders, nil
}

// SetStatus applies an administrator status edit through the state machine:
// COMPLETED runs fulfillment, CANCELLED runs cancellation, and any edit of a
// terminal order or to PENDING changes nothing.
func (s *OrderService) SetStatus(ctx context.Context, id string, status models.OrderStatus, admin models.Identity) (*TransitionResult, error) {
	if !status.Valid() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "unknown order status %q", status)
	}
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to load order")
	}
	if order == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "order %s not found", id)
	}

	var res *TransitionResult
	switch status {
	case models.OrderStatusCompleted:
		res, err = s.fulfillment.Fulfill(ctx, FulfillRequest{
			OrderID:       id,
			Trigger:       TriggerAdmin,
			SkipInventory: !s.adminCompleteAdjustsStock,
		})
	case models.OrderStatusCancelled:
		res, err = s.cancellation.Cancel(ctx, id, admin)
	default:
		return &TransitionResult{Order: order}, nil
	}
	if err != nil {
		return nil, err
	}
	if res.Order == nil {
		return nil, apperrors.Newf(apperrors.CodeNotFound, "order %s not found", id)
	}
	return res, nil
}

// MonthlyRevenue is completed-order revenue for one calendar month (UTC).
type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}

// OrderStats summarises the order book for the admin dashboard.
type OrderStats struct {
	StatusCounts map[models.OrderStatus]int64 `json:"status_counts"`
	TotalRevenue decimal.Decimal              `json:"total_revenue"`
	Monthly      []MonthlyRevenue             `json:"monthly"`
}

// Stats computes per-status counts and completed revenue per month.
func (s *OrderService) Stats(ctx context.Context) (*OrderStats, error) {
	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to count orders")
	}
	completed, err := s.orders.ListByStatus(ctx, models.OrderStatusCompleted)
	if err != nil {
		return nil, apperrors.FromDB(err, "failed to load completed orders")
	}

	stats := &OrderStats{StatusCounts: make(map[models.OrderStatus]int64, 3), TotalRevenue: decimal.Zero}
	for _, status := range []models.OrderStatus{models.OrderStatusPending, models.OrderStatusCompleted, models.OrderStatusCancelled} {
		stats.StatusCounts[status] = counts[status]
	}

	byMonth := make(map[string]*MonthlyRevenue)
	for _, order := range completed {
		month := order.CreatedAt.UTC().Format("2006-01")
		bucket, ok := byMonth[month]
		if !ok {
			bucket = &MonthlyRevenue{Month: month, Revenue: decimal.Zero}
			byMonth[month] = bucket
		}
		bucket.Orders++
		bucket.Revenue = bucket.Revenue.Add(order.TotalPrice)
		stats.TotalRevenue = stats.TotalRevenue.Add(order.TotalPrice)
	}
	stats.Monthly = make([]MonthlyRevenue, 0, len(byMonth))
	for _, bucket := range byMonth {
		stats.Monthly = append(stats.Monthly, *bucket)
	}
	sort.Slice(stats.Monthly, func(i, j int) bool { return stats.Monthly[i].Month < stats.Monthly[j].Month })
	return stats, nil
}
