package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// OrderStatus is the lifecycle stage of a reservation.
type OrderStatus string

const (
	OrderReserved  OrderStatus = "reserved"
	OrderCheckedIn OrderStatus = "checked_in"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderException OrderStatus = "exception"
)

// OrderStatuses lists every legal order status in lifecycle order.
var OrderStatuses = []OrderStatus{OrderReserved, OrderCheckedIn, OrderCompleted, OrderCancelled, OrderException}

// Valid reports whether s is one of the enumerated order statuses.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Active reports whether an order in this status holds its room.
func (s OrderStatus) Active() bool {
	return s == OrderReserved || s == OrderCheckedIn
}

// ActiveOrderStatuses are the statuses that participate in conflict detection.
var ActiveOrderStatuses = []OrderStatus{OrderReserved, OrderCheckedIn}

// PaymentStatus tracks how much of an order has been settled.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "unpaid"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
	PaymentRefunded      PaymentStatus = "refunded"
)

// PaymentStatuses lists every legal payment status.
var PaymentStatuses = []PaymentStatus{PaymentUnpaid, PaymentPartiallyPaid, PaymentPaid, PaymentRefunded}

// Valid reports whether s is one of the enumerated payment statuses.
func (s PaymentStatus) Valid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// DerivePaymentStatus classifies paid against total. Refunded is never derived.
func DerivePaymentStatus(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	default:
		return PaymentPartiallyPaid
	}
}

// DateLayout is the calendar date format used for check-in, check-out and creation dates.
const DateLayout = "2006-01-02"

// Order is one room reservation for one customer over [CheckInDate, CheckOutDate).
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID         string          `bun:"order_id,pk" json:"order_id"`
	CustomerID      int64           `bun:"customer_id,notnull" json:"customer_id"`
	RoomNumber      string          `bun:"room_number,notnull" json:"room_number"`
	EmployeeID      string          `bun:"employee_id,nullzero" json:"employee_id,omitempty"`
	CheckInDate     string          `bun:"check_in_date,notnull" json:"check_in_date"`
	CheckOutDate    string          `bun:"check_out_date,notnull" json:"check_out_date"`
	Days            int             `bun:"days,notnull" json:"days"`
	TotalAmount     decimal.Decimal `bun:"total_amount,type:numeric(10,2),notnull" json:"total_amount"`
	PaidAmount      decimal.Decimal `bun:"paid_amount,type:numeric(10,2),notnull" json:"paid_amount"`
	PaymentStatus   PaymentStatus   `bun:"payment_status,notnull" json:"payment_status"`
	OrderStatus     OrderStatus     `bun:"order_status,notnull" json:"order_status"`
	SpecialRequests string          `bun:"special_requests,nullzero" json:"special_requests,omitempty"`
	CreatedOn       string          `bun:"created_on,notnull" json:"created_on"`
	CreatedAt       time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `bun:"updated_at,nullzero" json:"updated_at"`
}

// OrderDetail is an order joined with the display fields of its collaborators.
type OrderDetail struct {
	Order `bun:",extend"`

	CustomerName   string          `bun:"customer_name,scanonly" json:"customer_name"`
	CustomerPhone  string          `bun:"customer_phone,scanonly" json:"customer_phone"`
	CustomerIDCard string          `bun:"customer_id_card,scanonly" json:"customer_id_card,omitempty"`
	RoomType       string          `bun:"room_type,scanonly" json:"room_type"`
	RoomPrice      decimal.Decimal `bun:"room_price,scanonly" json:"room_price"`
	EmployeeName   string          `bun:"employee_name,scanonly" json:"employee_name,omitempty"`
}
