package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/messaging"
)

type replayClient struct {
	mu       sync.Mutex
	messages []messaging.Message
	errs     []error
}

func (c *replayClient) Publish(context.Context, []byte, []byte, map[string]string) error { return nil }
func (c *replayClient) Topic() string                                                    { return "orders.events" }

func (c *replayClient) Consume(ctx context.Context, handler messaging.Handler) error {
	for _, msg := range c.messages {
		err := handler(ctx, msg)
		c.mu.Lock()
		c.errs = append(c.errs, err)
		c.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func newEngine(t *testing.T, client messaging.Client, regs ...HandlerRegistration) (*Engine, *[]time.Duration) {
	t.Helper()
	cfg := config.Config{Messaging: config.Messaging{
		Enabled: true,
		Workers: config.Worker{Enabled: true, Concurrency: 1, MaxAttempts: 3, RetryDelay: 250 * time.Millisecond},
	}}
	e := NewEngine(Params{Client: client, Logger: zap.NewNop(), Config: cfg, Registrations: regs})

	var slept []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) bool {
		slept = append(slept, d)
		return ctx.Err() == nil
	}
	return e, &slept
}

func message(eventType string) messaging.Message {
	return messaging.Message{
		Topic:   "orders.events",
		Value:   []byte(`{}`),
		Headers: map[string]string{messaging.HeaderEventType: eventType},
	}
}

func TestDispatchFiltersByEventType(t *testing.T) {
	var all, paid int
	e, _ := newEngine(t, nil,
		HandlerRegistration{Name: "all", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error {
			all++
			return nil
		}},
		HandlerRegistration{Name: "paid", Topic: "orders.events", Events: []string{"order.paid"}, Handler: func(context.Context, messaging.Message) error {
			paid++
			return nil
		}},
	)

	require.NoError(t, e.Dispatch(context.Background(), message("order.created")))
	require.NoError(t, e.Dispatch(context.Background(), message("order.paid")))

	assert.Equal(t, 2, all)
	assert.Equal(t, 1, paid)
}

func TestDispatchRetriesUntilSuccess(t *testing.T) {
	calls := 0
	e, slept := newEngine(t, nil, HandlerRegistration{Name: "flaky", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	}})

	require.NoError(t, e.Dispatch(context.Background(), message("order.created")))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, *slept)
}

func TestDispatchJoinsExhaustedFailures(t *testing.T) {
	boom := errors.New("boom")
	okCalls := 0
	e, slept := newEngine(t, nil,
		HandlerRegistration{Name: "broken", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error { return boom }},
		HandlerRegistration{Name: "fine", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error {
			okCalls++
			return nil
		}},
	)

	err := e.Dispatch(context.Background(), message("order.cancelled"))
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, okCalls, "a failing handler does not starve its neighbours")
	assert.Len(t, *slept, 2, "no sleep after the final attempt")
}

func TestDispatchUnknownTopicIsIgnored(t *testing.T) {
	e, _ := newEngine(t, nil, HandlerRegistration{Name: "x", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error {
		t.Fatal("handler must not run")
		return nil
	}})

	msg := message("order.created")
	msg.Topic = "rooms.events"
	assert.NoError(t, e.Dispatch(context.Background(), msg))
}

func TestNewEngineSkipsIncompleteRegistrations(t *testing.T) {
	e, _ := newEngine(t, nil,
		HandlerRegistration{Name: "no-topic", Handler: func(context.Context, messaging.Message) error { return nil }},
		HandlerRegistration{Name: "no-handler", Topic: "orders.events"},
	)
	assert.Empty(t, e.handlers)
}

func TestStartConsumesAndStops(t *testing.T) {
	done := make(chan struct{})
	client := &replayClient{messages: []messaging.Message{message("order.created")}}
	e, _ := newEngine(t, client, HandlerRegistration{Name: "signal", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error {
		close(done)
		return nil
	}})

	require.NoError(t, e.start(context.Background()))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not consumed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.stop(ctx))

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Equal(t, []error{nil}, client.errs)
}

func TestStartDisabled(t *testing.T) {
	e, _ := newEngine(t, nil)
	e.enabled = false
	require.NoError(t, e.start(context.Background()))
	assert.Nil(t, e.cancel)
	require.NoError(t, e.stop(context.Background()))
}

func TestEmbeddedConsumesOnlyTheMemoryBus(t *testing.T) {
	tests := []struct {
		driver   string
		consumed bool
	}{
		{driver: "memory", consumed: true},
		{driver: "kafka", consumed: false},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			bus := messaging.NewMemory("orders.events", 4)
			require.NoError(t, bus.Publish(context.Background(), []byte("250101001"), []byte(`{}`),
				map[string]string{messaging.HeaderEventType: "order.created"}))

			cfg := config.Config{Messaging: config.Messaging{
				Enabled: true,
				Driver:  tt.driver,
				Workers: config.Worker{Enabled: true, Concurrency: 1, MaxAttempts: 1},
			}}
			handled := make(chan struct{}, 1)
			app := fxtest.New(t,
				fx.Supply(cfg, zap.NewNop()),
				fx.Provide(func() messaging.Client { return bus }),
				fx.Provide(fx.Annotate(func() HandlerRegistration {
					return HandlerRegistration{Name: "audit", Topic: "orders.events", Handler: func(context.Context, messaging.Message) error {
						handled <- struct{}{}
						return nil
					}}
				}, fx.ResultTags(`group:"worker.handlers"`))),
				Embedded,
			)
			app.RequireStart()
			defer app.RequireStop()

			select {
			case <-handled:
				assert.True(t, tt.consumed, "engine must stay idle for %s", tt.driver)
			case <-time.After(200 * time.Millisecond):
				assert.False(t, tt.consumed, "memory bus message was not consumed")
				assert.Equal(t, 1, bus.Pending())
			}
		})
	}
}

func TestSleepCtx(t *testing.T) {
	assert.True(t, sleepCtx(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
}
