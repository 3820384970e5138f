package seeder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	customerrepo "github.com/Additional-Code/innkeep/internal/repository/customer"
	eventrepo "github.com/Additional-Code/innkeep/internal/repository/event"
	orderrepo "github.com/Additional-Code/innkeep/internal/repository/order"
	roomrepo "github.com/Additional-Code/innkeep/internal/repository/room"
	ordersvc "github.com/Additional-Code/innkeep/internal/service/order"
	"github.com/Additional-Code/innkeep/internal/testutil"
)

func TestAllIsIdempotent(t *testing.T) {
	var (
		seed  *Seeder
		conns *database.Connections
	)
	app := fxtest.New(t,
		testutil.Infra(testutil.Config(t)),
		orderrepo.Module, roomrepo.Module, customerrepo.Module, eventrepo.Module,
		ordersvc.Module,
		Module,
		fx.Populate(&seed, &conns),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	ctx := context.Background()
	require.NoError(t, seed.All(ctx))
	require.NoError(t, seed.All(ctx))

	count := func(model any) int {
		n, err := conns.Reader.NewSelect().Model(model).Count(ctx)
		require.NoError(t, err)
		return n
	}
	assert.Equal(t, 5, count((*entity.Department)(nil)))
	assert.Equal(t, 2, count((*entity.Employee)(nil)))
	assert.Equal(t, 100, count((*entity.Room)(nil)))
	assert.Equal(t, 3, count((*entity.Customer)(nil)))
	assert.Equal(t, 3, count((*entity.Order)(nil)))

	var checkedIn entity.Order
	require.NoError(t, conns.Reader.NewSelect().Model(&checkedIn).Where("o.room_number = ?", "218").Scan(ctx))
	assert.Equal(t, entity.OrderCheckedIn, checkedIn.OrderStatus)
	assert.Equal(t, 4, checkedIn.Days)
	assert.Equal(t, "1800", checkedIn.TotalAmount.String())
}
