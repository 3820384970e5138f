package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/innkeep/repository/customer")

// ErrNotFound is returned when a customer is missing.
var ErrNotFound = errors.New("customer not found")

// Module provides the customer repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository encapsulates read/write access for customers.
type Repository struct {
	writer bun.IDB
	reader bun.IDB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{writer: conns.Writer, reader: conns.Reader}
}

// WithTx returns a repository whose reads and writes go through tx.
func (r *Repository) WithTx(tx bun.IDB) *Repository {
	return &Repository{writer: tx, reader: tx}
}

// Create inserts a customer and fills in its generated id.
func (r *Repository) Create(ctx context.Context, c *entity.Customer) error {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Create")
	defer span.End()

	if _, err := r.writer.NewInsert().Model(c).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Get fetches a customer by id.
func (r *Repository) Get(ctx context.Context, id int64) (*entity.Customer, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.Get", trace.WithAttributes(attribute.Int64("customer.id", id)))
	defer span.End()

	c := new(entity.Customer)
	err := r.reader.NewSelect().Model(c).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return c, nil
}

// List returns customers, newest first.
func (r *Repository) List(ctx context.Context) ([]entity.Customer, error) {
	ctx, span := repoTracer.Start(ctx, "CustomerRepository.List")
	defer span.End()

	customers := make([]entity.Customer, 0)
	if err := r.reader.NewSelect().Model(&customers).OrderExpr("c.created_at DESC, c.id DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return customers, nil
}
