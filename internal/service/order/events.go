package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/innkeep/internal/entity"
)

// Order event types, also carried in the messaging.HeaderEventType header.
const (
	EventCreated = "order.created"
	EventUpdated = "order.updated"
	EventPaid    = "order.paid"
	EventDeleted = "order.deleted"
)

// Event is published on the message bus after an order mutation commits.
type Event struct {
	Type          string               `json:"type"`
	OrderID       string               `json:"order_id"`
	RoomNumber    string               `json:"room_number"`
	CustomerID    int64                `json:"customer_id"`
	CheckInDate   string               `json:"check_in_date"`
	CheckOutDate  string               `json:"check_out_date"`
	OrderStatus   entity.OrderStatus   `json:"order_status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	Amount        *decimal.Decimal     `json:"amount,omitempty"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func newEvent(eventType string, o *entity.Order, amount decimal.Decimal, at time.Time) Event {
	ev := Event{
		Type:          eventType,
		OrderID:       o.OrderID,
		RoomNumber:    o.RoomNumber,
		CustomerID:    o.CustomerID,
		CheckInDate:   o.CheckInDate,
		CheckOutDate:  o.CheckOutDate,
		OrderStatus:   o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		PaidAmount:    o.PaidAmount,
		OccurredAt:    at,
	}
	if amount.IsPositive() {
		ev.Amount = &amount
	}
	return ev
}
