package room

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/observability"
)

// RegisterGauges publishes today's room occupancy as observable gauges.
func RegisterGauges(obs *observability.Manager, svc *Service, logger *zap.Logger) error {
	meter := obs.Meter("github.com/Additional-Code/innkeep/service/room")

	total, err := meter.Int64ObservableGauge("rooms.total",
		metric.WithDescription("Rooms in the inventory"))
	if err != nil {
		return err
	}
	occupied, err := meter.Int64ObservableGauge("rooms.occupied",
		metric.WithDescription("Rooms holding a reserved or checked-in stay today"))
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		occ, err := svc.Occupancy(ctx)
		if err != nil {
			logger.Warn("occupancy gauge skipped", zap.Error(err))
			return nil
		}
		o.ObserveInt64(total, int64(occ.TotalRooms))
		o.ObserveInt64(occupied, int64(occ.OccupiedRooms))
		return nil
	}, total, occupied)
	return err
}
