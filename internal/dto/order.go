package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/innkeep/internal/entity"
)

// OrderResponse represents an order as exposed via transport layers.
// Money is rendered with two decimal places.
type OrderResponse struct {
	OrderID         string    `json:"order_id"`
	CustomerID      int64     `json:"customer_id"`
	CustomerName    string    `json:"customer_name,omitempty"`
	CustomerPhone   string    `json:"customer_phone,omitempty"`
	CustomerIDCard  string    `json:"customer_id_card,omitempty"`
	RoomNumber      string    `json:"room_number"`
	RoomType        string    `json:"room_type,omitempty"`
	RoomPrice       string    `json:"room_price"`
	EmployeeID      string    `json:"employee_id,omitempty"`
	EmployeeName    string    `json:"employee_name,omitempty"`
	CheckInDate     string    `json:"check_in_date"`
	CheckOutDate    string    `json:"check_out_date"`
	Days            int       `json:"days"`
	TotalAmount     string    `json:"total_amount"`
	PaidAmount      string    `json:"paid_amount"`
	PaymentStatus   string    `json:"payment_status"`
	OrderStatus     string    `json:"order_status"`
	SpecialRequests string    `json:"special_requests,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Money formats an amount for transport.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FromOrderDetail maps a joined order onto its transport shape.
func FromOrderDetail(d entity.OrderDetail) OrderResponse {
	return OrderResponse{
		OrderID:         d.OrderID,
		CustomerID:      d.CustomerID,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		CustomerIDCard:  d.CustomerIDCard,
		RoomNumber:      d.RoomNumber,
		RoomType:        d.RoomType,
		RoomPrice:       Money(d.RoomPrice),
		EmployeeID:      d.EmployeeID,
		EmployeeName:    d.EmployeeName,
		CheckInDate:     d.CheckInDate,
		CheckOutDate:    d.CheckOutDate,
		Days:            d.Days,
		TotalAmount:     Money(d.TotalAmount),
		PaidAmount:      Money(d.PaidAmount),
		PaymentStatus:   string(d.PaymentStatus),
		OrderStatus:     string(d.OrderStatus),
		SpecialRequests: d.SpecialRequests,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

// FromOrderDetails maps a listing.
func FromOrderDetails(details []entity.OrderDetail) []OrderResponse {
	out := make([]OrderResponse, 0, len(details))
	for _, d := range details {
		out = append(out, FromOrderDetail(d))
	}
	return out
}

// PaymentResponse reports the outcome of a payment.
type PaymentResponse struct {
	OrderID       string `json:"order_id"`
	PaidAmount    string `json:"paid_amount"`
	TotalAmount   string `json:"total_amount"`
	PaymentStatus string `json:"payment_status"`
}
