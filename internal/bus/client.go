// Package bus broadcasts store changes and fired reminders over a fanout
// exchange so that every running process converges on the same persisted
// state. The bus is optional: a nil *Client is a valid no-op client, which
// keeps single-process deployments free of a broker requirement.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"tally/internal/core"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	origin       string
}

func NewClient(url, exchangeName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		origin:       uuid.NewString(),
	}

	err = channel.ExchangeDeclare(
		exchangeName,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return client, nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// StoreChanged implements the store's change notifier. Broadcast failures
// are logged, never propagated: the local write already succeeded.
func (c *Client) StoreChanged(ctx context.Context, key string, rev int64) {
	if c == nil {
		return
	}
	if err := c.publish(ctx, KindStoreChange, NewStoreChangeEvent(key, rev)); err != nil {
		slog.ErrorContext(ctx, "Failed to broadcast store change", "key", key, "rev", rev, "error", err)
		return
	}
	slog.DebugContext(ctx, "Broadcast store change", "key", key, "rev", rev)
}

// PublishReminder broadcasts a fired reminder.
func (c *Client) PublishReminder(ctx context.Context, plan core.PlannedExpense) error {
	if c == nil {
		return nil
	}
	if err := c.publish(ctx, KindReminder, NewReminderEvent(plan)); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	slog.InfoContext(ctx, "Published reminder event", "plan_id", plan.ID, "title", plan.Title)
	return nil
}

func (c *Client) publish(ctx context.Context, kind string, payload any) error {
	body, err := wrap(kind, c.origin, payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		"",    // routing key (ignored by fanout)
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// ConsumeStoreChanges binds a private queue to the exchange and feeds every
// remote store change to handler. Events this client published itself are
// skipped. Blocks until ctx is done or the broker channel closes.
func (c *Client) ConsumeStoreChanges(ctx context.Context, handler func(*StoreChangeEvent) error) error {
	if c == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	q, err := c.channel.QueueDeclare(
		"",    // broker-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := c.channel.QueueBind(q.Name, "", c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := c.channel.Consume(
		q.Name,
		"",    // consumer
		true,  // auto-ack: change events are advisory, a missed one only delays a resync
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Listening for store changes", "exchange", c.exchangeName, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping store change consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			env, err := unwrap(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal event", "error", err)
				continue
			}
			if env.Kind != KindStoreChange || env.Origin == c.origin {
				continue
			}

			var ev StoreChangeEvent
			if err := json.Unmarshal(env.Payload, &ev); err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal store change", "error", err)
				continue
			}

			if err := handler(&ev); err != nil {
				slog.ErrorContext(ctx, "Failed to handle store change", "key", ev.Key, "error", err)
			}
		}
	}
}
