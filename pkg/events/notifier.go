package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const NotificationQueue = "notifications"

// Notifier hands notifications to whatever delivers SMS and email.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	Close() error
}

// Channel is the part of *amqp.Channel the notifier uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitNotifier struct {
	conn  *amqp.Connection
	ch    Channel
	queue string
}

// DialRabbitNotifier connects to url and declares a durable queue.
func DialRabbitNotifier(url, queue string) (*RabbitNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	n, err := NewRabbitNotifier(ch, queue)
	if err != nil {
		conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

func NewRabbitNotifier(ch Channel, queue string) (*RabbitNotifier, error) {
	if queue == "" {
		queue = NotificationQueue
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("events: declare queue %s: %w", queue, err)
	}
	return &RabbitNotifier{ch: ch, queue: queue}, nil
}

func (r *RabbitNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("events: encode notification: %w", err)
	}
	err = r.ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         n.Template,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("events: publish notification: %w", err)
	}
	return nil
}

func (r *RabbitNotifier) Close() error {
	if err := r.ch.Close(); err != nil {
		return err
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// LogNotifier writes notifications to the log instead of delivering them.
// Template data is not logged since it carries OTP codes.
type LogNotifier struct {
	Log *zap.Logger
}

func (l LogNotifier) Notify(_ context.Context, n Notification) error {
	if l.Log != nil {
		l.Log.Info("notification queued", zap.String("channel", n.Channel),
			zap.String("to", n.To), zap.String("template", n.Template))
	}
	return nil
}

func (LogNotifier) Close() error { return nil }
