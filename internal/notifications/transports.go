package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"littlegrow/pkg/logger"
)

// LogTransport writes messages to the log instead of delivering them.
type LogTransport struct {
	log *logger.Logger
}

func NewLogTransport(log *logger.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	ctx = t.log.WithFields(ctx, map[string]any{"to": msg.To, "subject": msg.Subject})
	t.log.Info(ctx, "notification")
	return nil
}

// ResendTransport delivers email through the Resend HTTP API.
type ResendTransport struct {
	baseURL string
	apiKey  string
	from    string
}

func NewResendTransport(baseURL, apiKey, from string) *ResendTransport {
	return &ResendTransport{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, from: from}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (t *ResendTransport) Send(ctx context.Context, msg Message) error {
	deadline, ok := ctx.Deadline()
	if !ok {
		return errors.New("resend transport requires a deadline")
	}
	timeout := time.Until(deadline)
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(t.baseURL + "/emails")
	agent.Set(fiber.HeaderAuthorization, "Bearer "+t.apiKey)
	agent.JSON(resendEmail{From: t.from, To: []string{msg.To}, Subject: msg.Subject, HTML: msg.HTML})
	agent.Timeout(timeout)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("resend request failed: %w", errors.Join(errs...))
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("resend returned status %d: %s", status, strings.TrimSpace(string(body)))
	}
	return nil
}

// Queue receives rendered notifications for an external mail relay.
const Queue = "notifications"

type amqpPublisher interface {
	Publish(ctx context.Context, queue, messageType string, body []byte) error
}

// AMQPTransport hands the rendered message to a mail relay over RabbitMQ.
type AMQPTransport struct {
	client amqpPublisher
}

func NewAMQPTransport(client amqpPublisher) *AMQPTransport {
	return &AMQPTransport{client: client}
}

func (t *AMQPTransport) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	return t.client.Publish(ctx, Queue, "notification."+string(msg.Kind), body)
}
