package messaging

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"
)

const memoryBuffer = 256

// ErrBufferFull is returned when a memory bus has no room for another message.
var ErrBufferFull = errors.New("messaging: memory buffer full")

// Memory is an in-process bus for single-binary deployments and tests.
// Consumers share one queue, so each message reaches exactly one of them.
type Memory struct {
	topic string
	queue chan Message

	mu     sync.Mutex
	offset int64
}

// NewMemory returns a bus holding up to buffer undelivered messages.
func NewMemory(topic string, buffer int) *Memory {
	if buffer <= 0 {
		buffer = 1
	}
	return &Memory{topic: topic, queue: make(chan Message, buffer)}
}

// Publish enqueues a copy of the message. It never waits for a consumer: when the
// buffer is full the message is dropped and ErrBufferFull is returned.
func (m *Memory) Publish(ctx context.Context, key []byte, value []byte, headers map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	msg := Message{
		Topic:   m.topic,
		Key:     append([]byte(nil), key...),
		Value:   append([]byte(nil), value...),
		Headers: maps.Clone(headers),
		Offset:  m.offset + 1,
		Time:    time.Now().UTC(),
	}
	select {
	case m.queue <- msg:
		m.offset = msg.Offset
		return nil
	default:
		return ErrBufferFull
	}
}

// Consume delivers messages to handler until ctx is cancelled.
// Like an uncommitted kafka offset, a failed message is not redelivered to this consumer.
func (m *Memory) Consume(ctx context.Context, handler Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-m.queue:
			_ = handler(ctx, msg)
		}
	}
}

// Topic returns the topic every message is stamped with.
func (m *Memory) Topic() string { return m.topic }

// Pending reports how many messages wait for a consumer.
func (m *Memory) Pending() int { return len(m.queue) }
