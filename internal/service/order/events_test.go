package order

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/entity"
	"github.com/Additional-Code/innkeep/internal/messaging"
	"github.com/Additional-Code/innkeep/internal/testutil"
)

func busConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := testutil.Config(t)
	cfg.Messaging.Enabled = true
	cfg.Messaging.Driver = "memory"
	return cfg
}

func TestWritesSucceedWhenMemoryBusHasNoConsumer(t *testing.T) {
	f := newFixtureWith(t, busConfig(t))
	bus := messaging.NewMemory("orders.events", 1)
	f.svc.publisher = bus
	core, logs := observer.New(zapcore.ErrorLevel)
	f.svc.logger = zap.New(core)

	for day := 1; day <= 3; day++ {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		order, err := f.svc.Create(ctx, CreateInput{
			CustomerID:   f.guest.ID,
			RoomNumber:   "R1",
			CheckInDate:  fmt.Sprintf("2025-01-%02d", day),
			CheckOutDate: fmt.Sprintf("2025-01-%02d", day+1),
		})
		cancel()
		require.NoError(t, err, "create #%d", day)
		assert.Equal(t, fmt.Sprintf("25010100%d", day), order.OrderID)
	}

	stored, err := f.conns.Reader.NewSelect().Model((*entity.Order)(nil)).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stored)
	assert.Equal(t, 1, bus.Pending())

	dropped := logs.FilterMessage("publish order event").All()
	require.Len(t, dropped, 2)
	assert.Equal(t, messaging.ErrBufferFull.Error(), dropped[0].ContextMap()["error"])
}

// stalledBus accepts nothing and holds every publish until its context ends.
type stalledBus struct {
	mu       sync.Mutex
	waited   []time.Duration
	requests int
}

func (b *stalledBus) Publish(ctx context.Context, _ []byte, _ []byte, _ map[string]string) error {
	start := time.Now()
	<-ctx.Done()
	b.mu.Lock()
	b.requests++
	b.waited = append(b.waited, time.Since(start))
	b.mu.Unlock()
	return ctx.Err()
}

func (b *stalledBus) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *stalledBus) Topic() string { return "orders.events" }

func TestPublishDoesNotSpendTheRequestDeadline(t *testing.T) {
	f := newFixtureWith(t, busConfig(t))
	bus := &stalledBus{}
	f.svc.publisher = bus
	f.svc.messaging.timeout = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	order, err := f.svc.Create(ctx, CreateInput{
		CustomerID:   f.guest.ID,
		RoomNumber:   "R1",
		CheckInDate:  "2025-01-01",
		CheckOutDate: "2025-01-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "250101001", order.OrderID)
	assert.Less(t, time.Since(start), time.Second)

	paid, err := f.svc.ApplyPayment(ctx, order.OrderID, decimal.NewFromInt(50))
	require.NoError(t, err)
	assert.Equal(t, entity.PaymentPartiallyPaid, paid.PaymentStatus)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	assert.Equal(t, 2, bus.requests)
	for _, w := range bus.waited {
		assert.Less(t, w, time.Second)
	}
}

func TestPublishOutlivesCancelledRequest(t *testing.T) {
	f := newFixtureWith(t, busConfig(t))
	bus := messaging.NewMemory("orders.events", 4)
	f.svc.publisher = bus

	order := f.book(t, "R1", "2025-01-01", "2025-01-02")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.svc.publish(ctx, EventDeleted, &entity.Order{OrderID: order.OrderID}, decimal.Zero)

	assert.Equal(t, 2, bus.Pending(), "created and deleted events are both queued")
}
