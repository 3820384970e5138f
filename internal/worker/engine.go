package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/messaging"
)

// HandlerRegistration binds a handler to a topic and, optionally, a set of event types.
// An empty Events list receives every message on the topic.
type HandlerRegistration struct {
	Name    string
	Topic   string
	Events  []string
	Handler messaging.Handler
}

func (r HandlerRegistration) accepts(eventType string) bool {
	if len(r.Events) == 0 {
		return true
	}
	for _, e := range r.Events {
		if e == eventType {
			return true
		}
	}
	return false
}

// Params collects dependencies via Fx.
type Params struct {
	fx.In

	Client        messaging.Client
	Logger        *zap.Logger
	Config        config.Config
	Registrations []HandlerRegistration `group:"worker.handlers"`
}

// Engine orchestrates background message consumption.
type Engine struct {
	client    messaging.Client
	logger    *zap.Logger
	cfg       config.Worker
	enabled   bool
	handlers  map[string][]HandlerRegistration
	processed metric.Int64Counter
	cancel    context.CancelFunc
	wg        *sync.WaitGroup
	sleep     func(context.Context, time.Duration) bool
}

// NewEngine constructs the worker Engine.
func NewEngine(p Params) *Engine {
	handlers := make(map[string][]HandlerRegistration, len(p.Registrations))
	for _, r := range p.Registrations {
		if r.Topic == "" || r.Handler == nil {
			continue
		}
		handlers[r.Topic] = append(handlers[r.Topic], r)
	}

	processed, err := otel.Meter("github.com/Additional-Code/innkeep/worker").Int64Counter("worker.messages",
		metric.WithDescription("Messages handled by the worker engine, by handler and outcome"))
	if err != nil {
		p.Logger.Warn("worker metrics unavailable", zap.Error(err))
	}

	return &Engine{
		client:    p.Client,
		logger:    p.Logger,
		cfg:       p.Config.Messaging.Workers,
		enabled:   p.Config.Messaging.Enabled && p.Config.Messaging.Workers.Enabled,
		handlers:  handlers,
		processed: processed,
		sleep:     sleepCtx,
	}
}

// Module wires the engine into Fx lifecycle.
var Module = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, engine *Engine) {
		lc.Append(engine.hook())
	}),
)

// Embedded runs the engine inside the API process when the bus is the in-process
// memory driver, whose queue no separate worker process can reach.
var Embedded = fx.Options(
	fx.Provide(NewEngine),
	fx.Invoke(func(lc fx.Lifecycle, cfg config.Config, engine *Engine) {
		if cfg.Messaging.Driver != "memory" {
			return
		}
		lc.Append(engine.hook())
	}),
)

func (e *Engine) hook() fx.Hook {
	return fx.Hook{
		OnStart: e.start,
		OnStop:  e.stop,
	}
}

func (e *Engine) start(ctx context.Context) error {
	if !e.enabled {
		e.logger.Info("worker engine disabled")

		return nil
	}
	if len(e.handlers) == 0 {
		e.logger.Info("worker engine has no handlers; skipping")

		return nil
	}

	concurrency := e.cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	runCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.wg = &sync.WaitGroup{}

	for i := 0; i < concurrency; i++ {
		workerID := i
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.consumeLoop(runCtx, workerID)
		}()
	}

	e.logger.Info("worker engine started", zap.Int("workers", concurrency), zap.Int("topics", len(e.handlers)))

	return nil
}

func (e *Engine) stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	done := make(chan struct{})
	go func() {
		if e.wg != nil {
			e.wg.Wait()
		}
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		e.logger.Info("worker engine stopped")

		return nil
	}
}

func (e *Engine) consumeLoop(ctx context.Context, workerID int) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := e.client.Consume(ctx, func(msgCtx context.Context, msg messaging.Message) error {
			e.logger.Debug("processing message",
				zap.String("topic", msg.Topic),
				zap.String("event_type", msg.Header(messaging.HeaderEventType)),
				zap.Int("worker", workerID),
			)
			return e.Dispatch(msgCtx, msg)
		})

		if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}

		e.logger.Error("consume loop error", zap.Error(err))

		if !e.sleep(ctx, backoff) {
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// Dispatch runs every handler registered for the message's topic and event type.
// Each handler is attempted up to MaxAttempts times; failures are joined into the returned error.
func (e *Engine) Dispatch(ctx context.Context, msg messaging.Message) error {
	registrations, ok := e.handlers[msg.Topic]
	if !ok {
		e.logger.Warn("no handler for topic", zap.String("topic", msg.Topic))

		return nil
	}

	eventType := msg.Header(messaging.HeaderEventType)
	var errs error
	for _, r := range registrations {
		if !r.accepts(eventType) {
			continue
		}
		if err := e.run(ctx, r, msg); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (e *Engine) run(ctx context.Context, r HandlerRegistration, msg messaging.Message) error {
	attempts := e.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = r.Handler(ctx, msg); err == nil {
			e.record(ctx, r.Name, "ok")
			return nil
		}
		e.logger.Warn("message handler attempt failed",
			zap.String("handler", r.Name),
			zap.Int("attempt", attempt),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		if attempt < attempts && !e.sleep(ctx, e.cfg.RetryDelay) {
			break
		}
	}
	e.record(ctx, r.Name, "failed")
	return err
}

func (e *Engine) record(ctx context.Context, handler, outcome string) {
	if e.processed == nil {
		return
	}
	e.processed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("handler", handler),
		attribute.String("outcome", outcome),
	))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
