package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher sends booking events somewhere downstream.
type Publisher interface {
	PublishBooking(ctx context.Context, e BookingEvent) error
	Close() error
}

// Writer is the part of *kafka.Writer the producer needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaProducer struct {
	writer Writer
	log    *zap.Logger
}

// NewKafkaProducer writes to topic on broker, balancing by least bytes.
// Events go out one at a time, so batches are flushed almost immediately and
// a down broker fails fast instead of retrying for seconds.
func NewKafkaProducer(broker, topic string, log *zap.Logger) *KafkaProducer {
	return NewKafkaProducerWithWriter(&kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		WriteTimeout:           5 * time.Second,
	}, log)
}

func NewKafkaProducerWithWriter(w Writer, log *zap.Logger) *KafkaProducer {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaProducer{writer: w, log: log}
}

// PublishBooking keys the message by booking ID so all events of one booking
// land on the same partition.
func (p *KafkaProducer) PublishBooking(ctx context.Context, e BookingEvent) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events: encode %s: %w", e.Type, err)
	}
	msg := kafka.Message{
		Key:   []byte(e.BookingID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("kafka write failed", zap.String("type", e.Type), zap.String("booking", e.BookingID), zap.Error(err))
		return fmt.Errorf("events: publish %s: %w", e.Type, err)
	}
	p.log.Debug("kafka published", zap.String("type", e.Type), zap.String("booking", e.BookingID))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishBooking(context.Context, BookingEvent) error { return nil }

func (NopPublisher) Close() error { return nil }
