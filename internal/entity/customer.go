package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Customer is a hotel guest.
type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Phone     string    `bun:"phone,nullzero" json:"phone,omitempty"`
	IDCard    string    `bun:"id_card,nullzero" json:"id_card,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
