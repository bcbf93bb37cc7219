package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/streadway/amqp"
	"go.uber.org/multierr"
)

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	// sem serializes publishes; amqp channels are not safe for concurrent use.
	sem chan struct{}
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
	// Queues are declared durable up front so publishers never race consumers.
	Queues []string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the configured queues.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	for _, queue := range cfg.Queues {
		_, err = ch.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("failed to declare %s: %w", queue, err)
		}
	}

	return &Client{
		conn:    conn,
		channel: ch,
		sem:     make(chan struct{}, 1),
	}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var err error
	if c.channel != nil {
		err = multierr.Append(err, c.channel.Close())
	}
	if c.conn != nil {
		err = multierr.Append(err, c.conn.Close())
	}
	if err != nil {
		return fmt.Errorf("failed to close RabbitMQ client: %w", err)
	}
	return nil
}

// Publish sends a persistent JSON message to queue through the default exchange.
// The publish is abandoned once ctx is done, including while it waits behind
// an earlier publish that has not returned.
func (c *Client) Publish(ctx context.Context, queue string, messageType string, body []byte) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("publish %s to %s abandoned: %w", messageType, queue, ctx.Err())
	}

	done := make(chan error, 1)
	go func() {
		defer func() { <-c.sem }()
		done <- c.channel.Publish(
			"",    // exchange: default exchange
			queue, // routing key: the queue name
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				Type:         messageType,
				Body:         body,
				DeliveryMode: amqp.Persistent,
				Timestamp:    time.Now(),
			})
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to publish %s to %s: %w", messageType, queue, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish %s to %s abandoned: %w", messageType, queue, ctx.Err())
	}
}
