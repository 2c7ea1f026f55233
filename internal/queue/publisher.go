package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends invalidation events.  It dials per publish: events are
// rare (owner configuration writes and order sync), so no connection is
// held open.
type Publisher struct {
	url string
	log *zap.Logger
}

func NewPublisher(url string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{url: url, log: log}
}

func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(InvalidateQueue, true, false, false, false, nil)
	return err
}

// PublishInvalidated writes ev as a persistent JSON message.
func (p *Publisher) PublishInvalidated(ctx context.Context, ev AvailabilityInvalidatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", InvalidateQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug("invalidation published", zap.Uint64("product_id", ev.ProductID), zap.String("reason", ev.Reason))
	return nil
}
