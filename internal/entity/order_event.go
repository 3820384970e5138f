package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderEvent is an audit record of a mutation applied to an order.
type OrderEvent struct {
	bun.BaseModel `bun:"table:order_events,alias:ev"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	OrderID    string    `bun:"order_id,notnull" json:"order_id"`
	EventType  string    `bun:"event_type,notnull" json:"event_type"`
	Payload    string    `bun:"payload,nullzero" json:"payload,omitempty"`
	OccurredAt time.Time `bun:"occurred_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"occurred_at"`
}
