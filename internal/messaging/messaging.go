package messaging

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
)

// Message is a record delivered from the bus.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
	Offset  int64
	Time    time.Time
}

// HeaderEventType names the header carrying the domain event type.
const HeaderEventType = "event_type"

// Header returns the value of a message header, or "" when absent.
func (m Message) Header(name string) string {
	return m.Headers[name]
}

// Handler processes an inbound message. A non-nil error leaves the message uncommitted.
type Handler func(context.Context, Message) error

// Client publishes to and consumes from the configured topic.
type Client interface {
	Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error
	Consume(ctx context.Context, handler Handler) error
	Topic() string
}

// Module wires the messaging client.
var Module = fx.Provide(NewClient)

// NewClient selects the driver named by configuration. Disabled messaging always yields the noop client.
func NewClient(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Client, error) {
	topic := cfg.Messaging.Kafka.Topic
	driver := cfg.Messaging.Driver
	if !cfg.Messaging.Enabled {
		driver = "noop"
	}

	switch driver {
	case "noop", "":
		logger.Info("messaging disabled; using noop client")
		return noopClient{topic: topic}, nil
	case "memory":
		logger.Info("using in-process message bus", zap.String("topic", topic))
		return NewMemory(topic, memoryBuffer), nil
	case "kafka":
		return newKafkaClient(lc, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported messaging driver: %s", driver)
	}
}

// noopClient drops published messages and blocks consumers until cancelled.
type noopClient struct {
	topic string
}

func (n noopClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }

func (n noopClient) Consume(ctx context.Context, _ Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (n noopClient) Topic() string { return n.topic }
