package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/entity"
	customerrepo "github.com/Additional-Code/innkeep/internal/repository/customer"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/innkeep/service/customer")

// Module provides the customer service to Fx.
var Module = fx.Provide(NewService)

// Service manages guest records.
type Service struct {
	repo   *customerrepo.Repository
	logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(repo *customerrepo.Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateInput describes a new guest.
type CreateInput struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	IDCard string `json:"id_card"`
}

// Create registers a guest. Name is required.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Customer, error) {
	ctx, span := serviceTracer.Start(ctx, "CustomerService.Create")
	defer span.End()

	c := &entity.Customer{
		Name:      strings.TrimSpace(in.Name),
		Phone:     strings.TrimSpace(in.Phone),
		IDCard:    strings.TrimSpace(in.IDCard),
		CreatedAt: time.Now().UTC(),
	}
	if c.Name == "" {
		return nil, errorbank.BadRequest("name is required", errorbank.WithDetail("field", "name"))
	}
	if err := s.repo.Create(ctx, c); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		s.logger.Error("failed to create customer", zap.Error(err))
		return nil, errorbank.Internal("failed to create customer", errorbank.WithCause(err))
	}
	return c, nil
}

// Get fetches a guest by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Customer, error) {
	ctx, span := serviceTracer.Start(ctx, "CustomerService.Get")
	defer span.End()

	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, customerrepo.ErrNotFound) {
		return nil, errorbank.NotFound("customer not found", errorbank.WithDetail("customer_id", id))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load customer", errorbank.WithCause(err))
	}
	return c, nil
}

// List returns every guest, newest first.
func (s *Service) List(ctx context.Context) ([]entity.Customer, error) {
	ctx, span := serviceTracer.Start(ctx, "CustomerService.List")
	defer span.End()

	customers, err := s.repo.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list customers", errorbank.WithCause(err))
	}
	return customers, nil
}
