// Package rabbitmq publishes and consumes user lifecycle events.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gymhub/internal/logging"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
)

// DefaultQueue is used when Config.Queue is empty.
const DefaultQueue = "user_events"

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// channel is the subset of *amqp.Channel the client uses.
type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel channel
	queue   string
	logger  *slog.Logger

	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewClient connects to RabbitMQ, opens a channel and declares the queue.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	client, err := newClient(ch, cfg.Queue, logger)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	client.conn = conn
	return client, nil
}

func newClient(ch channel, queue string, logger *slog.Logger) (*Client, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if _, err := declare(ch, queue); err != nil {
		return nil, fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	logger.Info("rabbitmq client connected", "queue", queue)
	return &Client{channel: ch, queue: queue, logger: logger}, nil
}

func declare(ch channel, queue string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message of the given event type to the
// queue through the default exchange.
func (c *Client) Publish(eventType string, body []byte) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		"",      // exchange: default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			MessageId:    uuid.NewString(),
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	c.logger.Debug("event published", "type", eventType, "queue", c.queue)
	return nil
}

// Handler processes one delivery. A nil return acks it.
type Handler func(msg amqp.Delivery) error

// ConsumeUserEvents starts a goroutine that feeds deliveries to handler
// until ctx is done or the channel closes. Failed messages are rejected
// without requeue so a poison message cannot loop forever.
func (c *Client) ConsumeUserEvents(ctx context.Context, handler Handler) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	queue, err := declare(c.channel, c.queue)
	if err != nil {
		return fmt.Errorf("failed to declare queue for consuming: %w", err)
	}

	msgs, err := c.channel.Consume(
		queue.Name, // queue
		"",         // consumer tag
		false,      // auto-ack
		false,      // exclusive
		false,      // no-local
		false,      // no-wait
		nil,        // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("waiting for user events", "queue", queue.Name)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.dispatch(msg, handler)
			}
		}
	}()
	return nil
}

func (c *Client) dispatch(msg amqp.Delivery, handler Handler) {
	if err := handler(msg); err != nil {
		c.logger.Warn("error processing message", "delivery_tag", msg.DeliveryTag, "type", msg.Type, "error", err)
		if nackErr := msg.Nack(false, false); nackErr != nil {
			c.logger.Warn("error nacking message", "delivery_tag", msg.DeliveryTag, "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		c.logger.Warn("error acking message", "delivery_tag", msg.DeliveryTag, "error", ackErr)
	}
}

// userEvent mirrors the published message body.
type userEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// LogUserEvents returns a Handler that decodes each event and logs it.
func LogUserEvents(logger *slog.Logger) Handler {
	return func(msg amqp.Delivery) error {
		var event userEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode user event: %w", err)
		}
		if event.UserID == "" {
			return errors.New("user event without user_id")
		}
		logger.Info("user event received", "type", event.Type, "user_id", event.UserID, "occurred_at", event.OccurredAt)
		return nil
	}
}
