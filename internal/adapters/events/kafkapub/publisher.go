package kafkapub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/phenrril/gebeya/internal/domain"
)

var ErrNoBrokers = errors.New("kafka: no brokers configured")

// Publisher writes domain events to one topic, keyed by order id so every event
// of an order lands on the same partition.
type Publisher struct {
	writer *kafka.Writer
}

func New(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		return nil, errors.New("kafka: topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka writer: "+msg, args...)
		}),
	}
	return &Publisher{writer: w}, nil
}

func (p *Publisher) Publish(ctx context.Context, evts ...domain.Event) error {
	msgs, err := Messages(evts...)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error { return p.writer.Close() }

// Messages encodes events as JSON kafka messages with the event type in a header.
func Messages(evts ...domain.Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(evts))
	for _, e := range evts {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(e.OrderID.String()),
			Value:   b,
			Time:    e.OccurredAt,
			Headers: []kafka.Header{{Key: "event_type", Value: []byte(e.Type)}},
		})
	}
	return msgs, nil
}

// Logger is the publisher used when no brokers are configured: events only reach the log.
type Logger struct{}

func (Logger) Publish(_ context.Context, evts ...domain.Event) error {
	for _, e := range evts {
		log.Debug().Str("event", string(e.Type)).Str("order_number", e.OrderNumber).Msg("event")
	}
	return nil
}
