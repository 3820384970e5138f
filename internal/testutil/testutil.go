// Package testutil builds an isolated, migrated sqlite-backed container for package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/cache"
	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	"github.com/Additional-Code/innkeep/internal/messaging"
	"github.com/Additional-Code/innkeep/internal/migration"
)

// Config returns settings for an in-memory sqlite database private to the test.
func Config(t testing.TB) config.Config {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString())
	return config.Config{
		Cache: config.Cache{Enabled: true, Driver: "memory", DefaultTTL: time.Minute},
		Messaging: config.Messaging{
			Driver:  "noop",
			Kafka:   config.Kafka{Topic: "orders.events"},
			Workers: config.Worker{Concurrency: 1, MaxAttempts: 1},
		},
		Database: config.Database{
			Driver:       "sqlite",
			WriterDSN:    dsn,
			ReaderDSN:    dsn,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Observability: config.Observability{ServiceName: "innkeep-test", Environment: "test"},
		Auth: config.Auth{
			AdminUsername: "admin",
			AdminPassword: "admin123",
			SessionSecret: "test-secret",
			SessionTTL:    time.Hour,
			CookieName:    "innkeep_session",
			DepartmentPages: map[string][]string{
				"Front Office": {"rooms", "orders", "customers"},
				"Finance":      {"orders", "customers", "analytics"},
			},
		},
		Orders: config.Orders{PageSize: 10, CreateRetries: 3, TrendDays: 7, RevenueDays: 30},
	}
}

// Infra provides the storage, cache and messaging graph for cfg and applies every migration.
func Infra(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		fx.Supply(zap.NewNop()),
		database.Module,
		cache.Module,
		messaging.Module,
		migration.Module,
		fx.Invoke(func(m *migration.Migrator) error {
			return m.Up(context.Background())
		}),
	)
}

// Room inserts a room with the given nightly price.
func Room(t testing.TB, conns *database.Connections, number string, price int64) *entity.Room {
	t.Helper()
	room := &entity.Room{
		RoomNumber: number,
		RoomType:   "single",
		Floor:      1,
		Price:      decimal.NewFromInt(price),
		Capacity:   1,
		Area:       23,
		Status:     entity.RoomVacant,
	}
	_, err := conns.Writer.NewInsert().Model(room).Exec(context.Background())
	require.NoError(t, err)
	return room
}

// Customer inserts a guest and returns it with its generated id.
func Customer(t testing.TB, conns *database.Connections, name string) *entity.Customer {
	t.Helper()
	c := &entity.Customer{Name: name, Phone: "13800000000"}
	_, err := conns.Writer.NewInsert().Model(c).Exec(context.Background())
	require.NoError(t, err)
	require.NotZero(t, c.ID)
	return c
}
