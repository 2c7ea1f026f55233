package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Invalidator drops cached availability of a product.
type Invalidator interface {
	Invalidate(ctx context.Context, productID uint64) (int, error)
}

// Consumer applies invalidation events from the broker.
type Consumer struct {
	url         string
	invalidator Invalidator
	log         *zap.Logger

	// MaxBackoff caps the wait between reconnect attempts.
	MaxBackoff time.Duration
}

func NewConsumer(url string, inv Invalidator, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{url: url, invalidator: inv, log: log, MaxBackoff: 30 * time.Second}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker is unreachable or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("invalidation consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < c.MaxBackoff {
				backoff = min(backoff*2, c.MaxBackoff)
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("invalidation consumer: reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("invalidation consumer: set QoS failed", zap.Error(err))
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(InvalidateQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.log.Info("invalidation consumer started", zap.String("queue", InvalidateQueue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.Warn("invalidation message rejected", zap.Error(err))
				// never requeue: keys are versioned, so a lost event only
				// delays reclaiming stale entries
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	ev, err := decodeEvent(body)
	if err != nil {
		return err
	}
	n, err := c.invalidator.Invalidate(ctx, ev.ProductID)
	if err != nil {
		return fmt.Errorf("invalidate product %d: %w", ev.ProductID, err)
	}
	c.log.Debug("availability invalidated",
		zap.Uint64("product_id", ev.ProductID),
		zap.String("reason", ev.Reason),
		zap.String("source_id", ev.SourceID),
		zap.Int("keys", n),
	)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
