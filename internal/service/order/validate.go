package order

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/innkeep/internal/entity"
)

// CreateInput is the raw request for a new order.
type CreateInput struct {
	CustomerID      int64
	RoomNumber      string
	CheckInDate     string
	CheckOutDate    string
	EmployeeID      string
	TotalAmount     *decimal.Decimal
	PaidAmount      *decimal.Decimal
	OrderStatus     string
	PaymentStatus   string
	SpecialRequests string
}

// UpdateInput is a partial order update; nil fields are left unchanged.
type UpdateInput struct {
	CustomerID      *int64
	RoomNumber      *string
	CheckInDate     *string
	CheckOutDate    *string
	EmployeeID      *string
	TotalAmount     *decimal.Decimal
	PaidAmount      *decimal.Decimal
	OrderStatus     *string
	PaymentStatus   *string
	SpecialRequests *string
}

func (in UpdateInput) movesStay() bool {
	return in.RoomNumber != nil || in.CheckInDate != nil || in.CheckOutDate != nil
}

func (in *CreateInput) normalize() {
	in.RoomNumber = strings.TrimSpace(in.RoomNumber)
	in.CheckInDate = strings.TrimSpace(in.CheckInDate)
	in.CheckOutDate = strings.TrimSpace(in.CheckOutDate)
	in.EmployeeID = strings.TrimSpace(in.EmployeeID)
	in.OrderStatus = strings.TrimSpace(in.OrderStatus)
	in.PaymentStatus = strings.TrimSpace(in.PaymentStatus)
}

func (in CreateInput) validate() (int, error) {
	if in.CustomerID <= 0 {
		return 0, missingField("customer_id")
	}
	if in.RoomNumber == "" {
		return 0, missingField("room_number")
	}
	days, err := StayDays(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return 0, err
	}
	if in.OrderStatus != "" {
		if _, err := parseOrderStatus(in.OrderStatus); err != nil {
			return 0, err
		}
	}
	if in.PaymentStatus != "" {
		if _, err := parsePaymentStatus(in.PaymentStatus); err != nil {
			return 0, err
		}
	}
	if err := checkAmount("total_amount", in.TotalAmount); err != nil {
		return 0, err
	}
	if err := checkAmount("paid_amount", in.PaidAmount); err != nil {
		return 0, err
	}
	return days, nil
}

// StayDays validates a check-in/check-out pair and returns the number of nights between them.
func StayDays(checkIn, checkOut string) (int, error) {
	if checkIn == "" {
		return 0, missingField("check_in_date")
	}
	if checkOut == "" {
		return 0, missingField("check_out_date")
	}
	in, err := parseDate("check_in_date", checkIn)
	if err != nil {
		return 0, err
	}
	out, err := parseDate("check_out_date", checkOut)
	if err != nil {
		return 0, err
	}
	if !out.After(in) {
		return 0, invalidDateRange(checkIn, checkOut)
	}
	return int(out.Sub(in) / (24 * time.Hour)), nil
}

func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(entity.DateLayout, value)
	if err != nil {
		return time.Time{}, invalidDateFormat(field, value)
	}
	return t, nil
}

func parseOrderStatus(raw string) (entity.OrderStatus, error) {
	s := entity.OrderStatus(raw)
	if !s.Valid() {
		return "", invalidEnum("order_status", raw, entity.OrderStatuses)
	}
	return s, nil
}

func parsePaymentStatus(raw string) (entity.PaymentStatus, error) {
	s := entity.PaymentStatus(raw)
	if !s.Valid() {
		return "", invalidEnum("payment_status", raw, entity.PaymentStatuses)
	}
	return s, nil
}

func checkAmount(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return invalidAmount(field, "must not be negative")
	}
	return nil
}

// settle resolves the payment status of o. An explicit refunded status sticks; anything else is derived.
func settle(o *entity.Order, requested entity.PaymentStatus) {
	if requested == entity.PaymentRefunded {
		o.PaymentStatus = entity.PaymentRefunded
		return
	}
	o.PaymentStatus = entity.DerivePaymentStatus(o.PaidAmount, o.TotalAmount)
}
