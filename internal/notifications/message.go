// Package notifications renders and delivers human-readable messages about
// order state changes. Delivery is best-effort: failures are logged and
// counted, never returned to the code that triggered them.
package notifications

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"

	"littlegrow/internal/models"
)

// Kind names a notification template.
type Kind string

const (
	KindNewOrder       Kind = "new_order"
	KindPaymentSuccess Kind = "payment_success"
	KindOrderCancelled Kind = "order_cancelled"
)

// Message is a rendered notification addressed to one destination.
type Message struct {
	Kind    Kind   `json:"kind"`
	OrderID string `json:"order_id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"money": formatMoney,
	"short": shortID,
}).ParseFS(templateFS, "templates/*.html"))

type templateData struct {
	Order         *models.Order
	CustomerName  string
	CustomerEmail string
	CancelledBy   string
}

func formatMoney(d decimal.Decimal) string {
	return "Rp " + d.StringFixedBank(0)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func render(kind Kind, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(kind)+".html", data); err != nil {
		return "", fmt.Errorf("failed to render %s notification: %w", kind, err)
	}
	return buf.String(), nil
}

func customerName(order *models.Order) string {
	if order.CustomerName != "" {
		return order.CustomerName
	}
	return order.UserID
}

// NewOrderMessage tells the operations contact a checkout was placed.
func NewOrderMessage(order *models.Order, opsEmail string) (Message, error) {
	html, err := render(KindNewOrder, templateData{Order: order, CustomerName: customerName(order), CustomerEmail: order.CustomerEmail})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    KindNewOrder,
		OrderID: order.ID,
		To:      opsEmail,
		Subject: fmt.Sprintf("New order #%s from %s", shortID(order.ID), customerName(order)),
		HTML:    html,
	}, nil
}

// PaymentSuccessMessage confirms a settled payment to the customer.
func PaymentSuccessMessage(order *models.Order) (Message, error) {
	html, err := render(KindPaymentSuccess, templateData{Order: order, CustomerName: customerName(order)})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    KindPaymentSuccess,
		OrderID: order.ID,
		To:      order.CustomerEmail,
		Subject: fmt.Sprintf("Payment successful! - Order ID %s", order.ID),
		HTML:    html,
	}, nil
}

// CancellationMessage tells the operations contact an order was cancelled,
// naming the customer and the cancelled items.
func CancellationMessage(order *models.Order, cancelledBy models.Identity, opsEmail string) (Message, error) {
	by := "customer"
	if cancelledBy.IsAdmin() {
		by = "administrator " + cancelledBy.Username
	}
	html, err := render(KindOrderCancelled, templateData{
		Order:         order,
		CustomerName:  customerName(order),
		CustomerEmail: order.CustomerEmail,
		CancelledBy:   by,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		Kind:    KindOrderCancelled,
		OrderID: order.ID,
		To:      opsEmail,
		Subject: fmt.Sprintf("Order cancelled - %s (#%s)", customerName(order), shortID(order.ID)),
		HTML:    html,
	}, nil
}
