package order

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/innkeep/internal/entity"
	repo "github.com/Additional-Code/innkeep/internal/repository/order"
)

// Availability is the outcome of a room availability check.
type Availability struct {
	Available           bool     `json:"available"`
	Reason              string   `json:"reason,omitempty"`
	ConflictingOrderIDs []string `json:"conflicting_order_ids"`
}

// AvailabilityQuery asks whether RoomNumber is free over [CheckIn, CheckOut).
type AvailabilityQuery struct {
	RoomNumber     string
	CheckIn        string
	CheckOut       string
	ExcludeOrderID string
}

const (
	reasonDisabled = "room is disabled"
	reasonBooked   = "room is already booked for the requested dates"
)

// CheckAvailability reports whether a room can be booked for a stay. Only a disabled room or an
// overlapping reserved/checked-in order makes it unavailable; ExcludeOrderID is left out of the check.
func (s *Service) CheckAvailability(ctx context.Context, q AvailabilityQuery) (*Availability, error) {
	q.RoomNumber = strings.TrimSpace(q.RoomNumber)
	q.CheckIn = strings.TrimSpace(q.CheckIn)
	q.CheckOut = strings.TrimSpace(q.CheckOut)
	q.ExcludeOrderID = strings.TrimSpace(q.ExcludeOrderID)

	ctx, span := serviceTracer.Start(ctx, "OrderService.CheckAvailability", trace.WithAttributes(
		attribute.String("room.number", q.RoomNumber),
		attribute.String("order.check_in", q.CheckIn),
		attribute.String("order.check_out", q.CheckOut),
	))
	defer span.End()

	if q.RoomNumber == "" {
		return nil, missingField("room_number")
	}
	if _, err := StayDays(q.CheckIn, q.CheckOut); err != nil {
		return nil, err
	}

	room, err := s.requireRoom(ctx, nil, q.RoomNumber)
	if err != nil {
		return nil, s.fail(span, "check availability", err)
	}
	avail, err := availability(ctx, s.orders, room, q.CheckIn, q.CheckOut, q.ExcludeOrderID)
	if err != nil {
		return nil, s.fail(span, "check availability", err)
	}
	span.SetAttributes(attribute.Bool("room.available", avail.Available))
	return avail, nil
}

func availability(ctx context.Context, orders *repo.Repository, room *entity.Room, checkIn, checkOut, excludeID string) (*Availability, error) {
	if room.Status == entity.RoomDisabled {
		return &Availability{Reason: reasonDisabled, ConflictingOrderIDs: []string{}}, nil
	}
	ids, err := orders.Conflicts(ctx, room.RoomNumber, checkIn, checkOut, excludeID)
	if err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		return &Availability{Reason: reasonBooked, ConflictingOrderIDs: ids}, nil
	}
	return &Availability{Available: true, ConflictingOrderIDs: []string{}}, nil
}
