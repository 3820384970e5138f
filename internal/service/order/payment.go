package order

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/entity"
	repo "github.com/Additional-Code/innkeep/internal/repository/order"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

// ApplyPayment adds amount to the order's paid amount and re-derives its payment status.
// Overpayment is accepted and classified as paid.
func (s *Service) ApplyPayment(ctx context.Context, id string, amount decimal.Decimal) (*entity.OrderDetail, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ApplyPayment", trace.WithAttributes(
		attribute.String("order.id", id),
		attribute.String("payment.amount", amount.String()),
	))
	defer span.End()

	if !amount.IsPositive() {
		return nil, invalidAmount("payment_amount", "must be greater than zero")
	}

	s.writeMu.Lock()
	var order *entity.Order
	err := s.conns.RunInTx(ctx, func(ctx context.Context, tx bun.IDB) error {
		orders := s.orders.WithTx(tx)
		current, err := orders.GetByID(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return orderNotFound(id)
		}
		if err != nil {
			return err
		}
		if current.PaymentStatus == entity.PaymentRefunded {
			return errorbank.Unprocessable("cannot take a payment on a refunded order",
				errorbank.WithCause(ErrOrderRefunded),
				errorbank.WithDetail("order_id", id))
		}

		current.PaidAmount = current.PaidAmount.Add(amount)
		settle(current, "")
		current.UpdatedAt = s.now().UTC()
		if err := orders.Update(ctx, current); err != nil {
			return err
		}
		order = current
		return nil
	})
	s.writeMu.Unlock()
	if err != nil {
		return nil, s.fail(span, "apply payment", err)
	}

	count(ctx, s.metrics.payments, attribute.String("payment.status", string(order.PaymentStatus)))
	s.forget(ctx, id)
	s.publish(ctx, EventPaid, order, amount)
	s.logger.Info("payment applied",
		zap.String("order_id", id),
		zap.String("amount", amount.String()),
		zap.String("payment_status", string(order.PaymentStatus)),
	)
	return s.reload(ctx, span, id)
}
