// Package queue carries availability invalidation events over RabbitMQ.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// InvalidateQueue is the durable queue the events travel on.
const InvalidateQueue = "availability.invalidate"

// ReasonInitialStockChanged is set on events published after an owner
// changes the rental stock.  Other producers pick their own reasons.
const ReasonInitialStockChanged = "initial_stock_changed"

// AvailabilityInvalidatedEvent says cached availability of a product may
// be stale.  SourceID names the reservation that changed, when there is
// one.
type AvailabilityInvalidatedEvent struct {
	ProductID  uint64    `json:"product_id"`
	Reason     string    `json:"reason"`
	SourceID   string    `json:"source_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

var errNoProduct = errors.New("event without product_id")

func decodeEvent(body []byte) (AvailabilityInvalidatedEvent, error) {
	var ev AvailabilityInvalidatedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ProductID == 0 {
		return ev, errNoProduct
	}
	return ev, nil
}
