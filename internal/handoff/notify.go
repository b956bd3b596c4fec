package handoff

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fjod/sweet-trails/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic   = "order-handoff"
	eventType      = "order_handoff"
	publishTimeout = 5 * time.Second
)

// Notification announces that a customer was sent to the chat with an order.
type Notification struct {
	SessionID  string            `json:"session_id"`
	Items      []domain.LineItem `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice int64             `json:"total_price"`
	Message    string            `json:"message"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Notifier delivers notifications without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
	Close() error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

func (NopNotifier) Close() error { return nil }

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex // guards closed and wg.Add
	closed bool
	wg     sync.WaitGroup
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, timeout: publishTimeout, logger: logger}
}

// Notify publishes n in the background. The request context only contributes
// its values; cancellation of the request does not abort the write.
// Notifications arriving after Close are dropped.
func (p *KafkaPublisher) Notify(ctx context.Context, n Notification) {
	msg, err := encodeNotification(n)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to encode handoff notification", "session_id", n.SessionID, "error", err)
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.logger.WarnContext(ctx, "handoff publisher closed, dropping notification", "session_id", n.SessionID)
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
			p.logger.WarnContext(writeCtx, "failed to publish handoff notification", "session_id", n.SessionID, "error", err)
		}
	}()
}

// Close waits for in-flight publishes and closes the writer. Only the first
// call closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	return p.writer.Close()
}

func encodeNotification(n Notification) (kafka.Message, error) {
	if n.Items == nil {
		n.Items = []domain.LineItem{}
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal notification failed: %w", err)
	}
	return kafka.Message{
		Key:   []byte(n.SessionID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}
