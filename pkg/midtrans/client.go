package midtrans

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	SandboxBaseURL    = "https://app.sandbox.midtrans.com"
	ProductionBaseURL = "https://app.midtrans.com"

	defaultTimeout = 10 * time.Second
)

// Config holds Snap API connection details.
type Config struct {
	BaseURL   string
	ServerKey string
	Timeout   time.Duration
}

// Client talks to the Snap transaction API.
type Client struct {
	baseURL   string
	serverKey string
	timeout   time.Duration
}

// TransactionDetails identifies the charge on the processor side.
type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

// ItemDetail is one line shown on the processor's payment page.
type ItemDetail struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

// CustomerDetails prefills the payment page.
type CustomerDetails struct {
	FirstName string `json:"first_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// TransactionRequest is the body of a Snap token request.
type TransactionRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	ItemDetails        []ItemDetail       `json:"item_details,omitempty"`
	CustomerDetails    *CustomerDetails   `json:"customer_details,omitempty"`
}

// TransactionResponse carries the token used by the client-side payment popup.
type TransactionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type errorResponse struct {
	ErrorMessages []string `json:"error_messages"`
}

// NewClient creates a new Snap client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ServerKey == "" {
		return nil, errors.New("midtrans server key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = SandboxBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: baseURL, serverKey: cfg.ServerKey, timeout: timeout}, nil
}

// ServerKey exposes the shared secret used to sign notifications.
func (c *Client) ServerKey() string {
	return c.serverKey
}

// CreateTransactionToken requests a Snap token for the given order. The call is
// bounded by the client timeout or the context deadline, whichever is sooner.
func (c *Client) CreateTransactionToken(ctx context.Context, req TransactionRequest) (*TransactionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	agent := fiber.Post(c.baseURL + "/snap/v1/transactions")
	agent.BasicAuth(c.serverKey, "")
	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	agent.JSON(req)
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("snap request for order %s failed: %w", req.TransactionDetails.OrderID, errors.Join(errs...))
	}

	if status != fiber.StatusCreated && status != fiber.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && len(apiErr.ErrorMessages) > 0 {
			return nil, fmt.Errorf("snap returned status %d: %s", status, strings.Join(apiErr.ErrorMessages, "; "))
		}
		return nil, fmt.Errorf("snap returned status %d", status)
	}

	var resp TransactionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode snap response: %w", err)
	}
	if resp.Token == "" {
		return nil, errors.New("snap response did not include a token")
	}
	return &resp, nil
}
