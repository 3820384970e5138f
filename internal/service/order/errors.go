package order

import (
	"errors"
	"fmt"

	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

// Sentinel causes carried by the AppErrors this package returns. Match them with errors.Is.
var (
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrInvalidDateRange  = errors.New("invalid date range")
	ErrInvalidEnumValue  = errors.New("invalid enum value")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRoomNotFound      = errors.New("room not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderRefunded     = errors.New("order refunded")
	ErrConflict          = errors.New("room not available")
	ErrPersistence       = errors.New("persistence failure")
)

func missingField(field string) error {
	return errorbank.BadRequest(fmt.Sprintf("%s is required", field),
		errorbank.WithCause(ErrMissingField),
		errorbank.WithDetail("field", field))
}

func invalidDateFormat(field, value string) error {
	return errorbank.BadRequest(fmt.Sprintf("%s must be a YYYY-MM-DD date", field),
		errorbank.WithCause(ErrInvalidDateFormat),
		errorbank.WithDetail("field", field),
		errorbank.WithDetail("value", value))
}

func invalidDateRange(checkIn, checkOut string) error {
	return errorbank.BadRequest("check_out_date must be after check_in_date",
		errorbank.WithCause(ErrInvalidDateRange),
		errorbank.WithDetail("check_in_date", checkIn),
		errorbank.WithDetail("check_out_date", checkOut))
}

func invalidEnum(field, value string, allowed any) error {
	return errorbank.BadRequest(fmt.Sprintf("invalid %s %q", field, value),
		errorbank.WithCause(ErrInvalidEnumValue),
		errorbank.WithDetail("field", field),
		errorbank.WithDetail("allowed", allowed))
}

func invalidAmount(field, reason string) error {
	return errorbank.BadRequest(fmt.Sprintf("%s %s", field, reason),
		errorbank.WithCause(ErrInvalidAmount),
		errorbank.WithDetail("field", field))
}

func roomNotFound(room string) error {
	return errorbank.NotFound("room not found",
		errorbank.WithCause(ErrRoomNotFound),
		errorbank.WithDetail("room_number", room))
}

func customerNotFound(id int64) error {
	return errorbank.NotFound("customer not found",
		errorbank.WithCause(ErrCustomerNotFound),
		errorbank.WithDetail("customer_id", id))
}

func orderNotFound(id string) error {
	return errorbank.NotFound("order not found",
		errorbank.WithCause(ErrOrderNotFound),
		errorbank.WithDetail("order_id", id))
}

func conflict(room string, a *Availability) error {
	return errorbank.Conflict(a.Reason,
		errorbank.WithCause(ErrConflict),
		errorbank.WithDetail("room_number", room),
		errorbank.WithDetail("conflicting_order_ids", a.ConflictingOrderIDs))
}

func persistence(action string, err error) error {
	return errorbank.Internal("failed to "+action,
		errorbank.WithCause(fmt.Errorf("%w: %w", ErrPersistence, err)))
}
