package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// RoomStatus describes a room's occupancy. Only RoomDisabled is stored authoritatively;
// reserved and occupied are derived from active orders.
type RoomStatus string

const (
	RoomVacant   RoomStatus = "vacant"
	RoomReserved RoomStatus = "reserved"
	RoomOccupied RoomStatus = "occupied"
	RoomDisabled RoomStatus = "disabled"
)

// Room is a bookable hotel room.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	RoomNumber  string          `bun:"room_number,pk" json:"room_number"`
	RoomType    string          `bun:"room_type,notnull" json:"room_type"`
	Floor       int             `bun:"floor,notnull" json:"floor"`
	Price       decimal.Decimal `bun:"price,type:numeric(10,2),notnull" json:"price"`
	Capacity    int             `bun:"capacity,notnull" json:"capacity"`
	Area        int             `bun:"area,notnull" json:"area"`
	HasWindow   bool            `bun:"has_window,notnull" json:"has_window"`
	Status      RoomStatus      `bun:"status,notnull" json:"status"`
	Description string          `bun:"description,nullzero" json:"description,omitempty"`
	CreatedAt   time.Time       `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time       `bun:"updated_at,nullzero" json:"updated_at"`
}
