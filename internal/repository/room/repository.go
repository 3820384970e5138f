package room

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

var repoTracer = otel.Tracer("github.com/Additional-Code/innkeep/repository/room")

// ErrNotFound is returned when a room is missing.
var ErrNotFound = errors.New("room not found")

// Module provides the room repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository encapsulates read/write access for rooms.
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

// Get fetches a room by number.
func (r *Repository) Get(ctx context.Context, number string) (*entity.Room, error) {
	ctx, span := repoTracer.Start(ctx, "RoomRepository.Get", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	room := new(entity.Room)
	err := r.reader.NewSelect().Model(room).Where("r.room_number = ?", number).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return room, nil
}

// List returns every room ordered by number.
func (r *Repository) List(ctx context.Context) ([]entity.Room, error) {
	ctx, span := repoTracer.Start(ctx, "RoomRepository.List")
	defer span.End()

	rooms := make([]entity.Room, 0)
	if err := r.reader.NewSelect().Model(&rooms).OrderExpr("r.room_number ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rooms, nil
}

// Count returns the number of rooms.
func (r *Repository) Count(ctx context.Context) (int, error) {
	return r.reader.NewSelect().Model((*entity.Room)(nil)).Count(ctx)
}

// Create inserts a room.
func (r *Repository) Create(ctx context.Context, room *entity.Room) error {
	ctx, span := repoTracer.Start(ctx, "RoomRepository.Create", trace.WithAttributes(attribute.String("room.number", room.RoomNumber)))
	defer span.End()

	if _, err := r.writer.NewInsert().Model(room).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// Update writes the mutable room columns.
func (r *Repository) Update(ctx context.Context, room *entity.Room) error {
	ctx, span := repoTracer.Start(ctx, "RoomRepository.Update", trace.WithAttributes(attribute.String("room.number", room.RoomNumber)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(room).ExcludeColumn("room_number", "created_at").WherePK().Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a room.
func (r *Repository) Delete(ctx context.Context, number string) error {
	ctx, span := repoTracer.Start(ctx, "RoomRepository.Delete", trace.WithAttributes(attribute.String("room.number", number)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Room)(nil)).Where("room_number = ?", number).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
