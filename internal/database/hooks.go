package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// queryLogger logs failed statements and those slower than threshold.
// A zero threshold only reports failures.
type queryLogger struct {
	logger    *zap.Logger
	pool      string
	threshold time.Duration
}

func newQueryLogger(logger *zap.Logger, pool string, threshold time.Duration) *queryLogger {
	return &queryLogger{logger: logger, pool: pool, threshold: threshold}
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, ev *bun.QueryEvent) {
	elapsed := time.Since(ev.StartTime)
	switch {
	case ev.Err != nil && !errors.Is(ev.Err, sql.ErrNoRows):
		h.logger.Warn("query failed",
			zap.String("pool", h.pool),
			zap.String("operation", ev.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.Error(ev.Err),
		)
	case h.threshold > 0 && elapsed >= h.threshold:
		h.logger.Warn("slow query",
			zap.String("pool", h.pool),
			zap.String("operation", ev.Operation()),
			zap.Duration("elapsed", elapsed),
			zap.String("query", ev.Query),
		)
	}
}
