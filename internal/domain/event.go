package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
	EventOrderCancelled     EventType = "order.cancelled"
	EventPaymentCompleted   EventType = "payment.completed"
	EventPaymentFailed      EventType = "payment.failed"
)

type Event struct {
	ID          uuid.UUID      `json:"id"`
	Type        EventType      `json:"type"`
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNumber string         `json:"order_number"`
	CustomerID  uuid.UUID      `json:"customer_id"`
	Data        map[string]any `json:"data,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

func NewOrderEvent(t EventType, o *Order, data map[string]any) Event {
	return Event{
		ID:          uuid.New(),
		Type:        t,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Data:        data,
		OccurredAt:  time.Now().UTC(),
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, evts ...Event) error
}
