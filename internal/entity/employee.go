package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// EmployeeActive marks staff allowed to sign in.
const EmployeeActive = "active"

// Department groups employees and decides which back-office pages they may use.
type Department struct {
	bun.BaseModel `bun:"table:departments,alias:d"`

	DepartmentID   string    `bun:"department_id,pk"`
	DepartmentName string    `bun:"department_name,notnull"`
	Manager        string    `bun:"manager,nullzero"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}

// Employee is a staff member who may create orders and sign in.
type Employee struct {
	bun.BaseModel `bun:"table:employees,alias:e"`

	EmployeeID   string    `bun:"employee_id,pk"`
	EmployeeName string    `bun:"employee_name,notnull"`
	Phone        string    `bun:"phone,nullzero"`
	DepartmentID string    `bun:"department_id,nullzero"`
	PositionName string    `bun:"position_name,nullzero"`
	Status       string    `bun:"status,notnull"`
	Username     string    `bun:"username,nullzero"`
	PasswordHash string    `bun:"password_hash,nullzero"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`

	DepartmentName string `bun:"department_name,scanonly"`
}
