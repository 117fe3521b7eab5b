package kafkapub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/gebeya/internal/domain"
)

func TestMessages(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	o := &domain.Order{ID: uuid.New(), OrderNumber: "ORD-1-0001", CustomerID: uuid.New()}
	e := domain.NewOrderEvent(domain.EventPaymentCompleted, o, map[string]any{"payment_method": "chapa"})
	e.OccurredAt = at

	msgs, err := Messages(e)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	m := msgs[0]
	assert.Equal(t, o.ID.String(), string(m.Key))
	assert.Equal(t, at, m.Time)
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "event_type", m.Headers[0].Key)
	assert.Equal(t, "payment.completed", string(m.Headers[0].Value))

	var decoded domain.Event
	require.NoError(t, json.Unmarshal(m.Value, &decoded))
	assert.Equal(t, "ORD-1-0001", decoded.OrderNumber)
	assert.Equal(t, "chapa", decoded.Data["payment_method"])
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := New(nil, "gebeya.orders")
	assert.ErrorIs(t, err, ErrNoBrokers)

	_, err = New([]string{"localhost:9092"}, "")
	assert.Error(t, err)

	p, err := New([]string{"localhost:9092"}, "gebeya.orders")
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestLoggerPublisher(t *testing.T) {
	assert.NoError(t, Logger{}.Publish(context.Background(), domain.Event{Type: domain.EventOrderCreated}))
}
