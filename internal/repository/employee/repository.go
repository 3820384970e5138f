package employee

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.uber.org/fx"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
)

// ErrNotFound is returned when no active employee matches.
var ErrNotFound = errors.New("employee not found")

// Module provides the employee repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository reads staff records for sign-in and order attribution.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// ByUsername returns the active employee with username, joined with its department name.
func (r *Repository) ByUsername(ctx context.Context, username string) (*entity.Employee, error) {
	emp := new(entity.Employee)
	err := r.reader.NewSelect().
		Model(emp).
		ColumnExpr("e.*").
		ColumnExpr("d.department_name AS department_name").
		Join("LEFT JOIN departments AS d ON d.department_id = e.department_id").
		Where("e.username = ?", username).
		Where("e.status = ?", entity.EmployeeActive).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// CreateDepartment inserts a department, ignoring an existing id.
func (r *Repository) CreateDepartment(ctx context.Context, d *entity.Department) error {
	_, err := r.writer.NewInsert().Model(d).Ignore().Exec(ctx)
	return err
}

// Create inserts an employee, ignoring an existing id.
func (r *Repository) Create(ctx context.Context, emp *entity.Employee) error {
	_, err := r.writer.NewInsert().Model(emp).Ignore().Exec(ctx)
	return err
}
