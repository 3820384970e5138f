package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "github.com/Additional-Code/innkeep/internal/repository/order"
	"github.com/Additional-Code/innkeep/internal/testutil"
)

func TestListPaginatesAndFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.settings.PageSize = 2
	bob := testutil.Customer(t, f.conns, "Bob")

	f.book(t, "R1", "2025-01-01", "2025-01-02")
	f.book(t, "R1", "2025-01-02", "2025-01-03")
	_, err := f.svc.Create(ctx, CreateInput{CustomerID: bob.ID, RoomNumber: "R1", CheckInDate: "2025-01-05", CheckOutDate: "2025-01-07"})
	require.NoError(t, err)

	page, err := f.svc.List(ctx, ListQuery{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.PageSize)

	second, err := f.svc.List(ctx, ListQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)

	byName, err := f.svc.List(ctx, ListQuery{Search: "Bob"})
	require.NoError(t, err)
	require.Equal(t, 1, byName.Total)
	assert.Equal(t, "Bob", byName.Items[0].CustomerName)

	window, err := f.svc.Export(ctx, ListQuery{StartDate: "2025-01-02", EndDate: "2025-01-07"})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	_, err = f.svc.List(ctx, ListQuery{OrderStatus: "lost"})
	assert.True(t, errors.Is(err, ErrInvalidEnumValue))
}

func TestLookupsByCustomerRoomStatusAndDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	early := f.book(t, "R1", "2025-01-01", "2025-01-02")
	late := f.book(t, "R1", "2025-01-10", "2025-01-12")
	_, err := f.svc.Update(ctx, late.OrderID, UpdateInput{OrderStatus: strPtr("cancelled")})
	require.NoError(t, err)

	byCustomer, err := f.svc.ByCustomer(ctx, f.guest.ID)
	require.NoError(t, err)
	require.Len(t, byCustomer, 2)
	assert.Equal(t, late.OrderID, byCustomer[0].OrderID, "latest check-in first")

	byRoom, err := f.svc.ByRoom(ctx, "R1", "2025-01-05", "")
	require.NoError(t, err)
	require.Len(t, byRoom, 1)
	assert.Equal(t, late.OrderID, byRoom[0].OrderID)

	reserved, err := f.svc.ByStatus(ctx, "reserved")
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assert.Equal(t, early.OrderID, reserved[0].OrderID)

	today, err := f.svc.ByDate(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, today, 2)

	none, err := f.svc.ByDate(ctx, "2024-12-31")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.ByDate(ctx, "yesterday")
	assert.True(t, errors.Is(err, ErrInvalidDateFormat))
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.book(t, "R1", "2025-01-01", "2025-01-04")
	second := f.book(t, "R1", "2025-01-05", "2025-01-06")
	_, err := f.svc.ApplyPayment(ctx, first.OrderID, decimal.NewFromInt(300))
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, second.OrderID, UpdateInput{OrderStatus: strPtr("cancelled")})
	require.NoError(t, err)

	stats, err := f.svc.Statistics(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalOrders)
	assert.ElementsMatch(t, []repo.StatusCount{{Status: "reserved", Count: 1}, {Status: "cancelled", Count: 1}}, stats.ByOrderStatus)
	assert.ElementsMatch(t, []repo.StatusCount{{Status: "paid", Count: 1}, {Status: "unpaid", Count: 1}}, stats.ByPaymentStatus)

	assert.Equal(t, 2, stats.Today.Total)
	assert.Equal(t, 1, stats.Today.Reserved)
	assert.Equal(t, 1, stats.Today.Cancelled)
	assert.Equal(t, "400", stats.Today.TotalAmount.String())
	assert.Equal(t, "300", stats.Today.PaidAmount.String())

	require.Len(t, stats.Trend, 7)
	assert.Equal(t, "2024-12-26", stats.Trend[0].Date)
	assert.Equal(t, 0, stats.Trend[0].Count)
	assert.Equal(t, "2025-01-01", stats.Trend[6].Date)
	assert.Equal(t, 2, stats.Trend[6].Count)
}

func TestStatisticsOnEmptyStore(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalOrders)
	assert.True(t, stats.Today.TotalAmount.IsZero())
	assert.Len(t, stats.Trend, 7)
}

func TestRevenue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.book(t, "R1", "2025-01-01", "2025-01-04")
	_, err := f.svc.ApplyPayment(ctx, order.OrderID, decimal.NewFromInt(120))
	require.NoError(t, err)

	rev, err := f.svc.Revenue(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-12-03", rev.StartDate)
	assert.Equal(t, "2025-01-01", rev.EndDate)
	assert.Equal(t, 1, rev.TotalOrders)
	assert.Equal(t, "300", rev.TotalAmount.String())
	assert.Equal(t, "120", rev.PaidAmount.String())
	assert.Equal(t, "180", rev.OutstandingDue.String())
	require.Len(t, rev.ByRoomType, 1)
	assert.Equal(t, "single", rev.ByRoomType[0].Label)

	empty, err := f.svc.Revenue(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)
	assert.True(t, empty.TotalAmount.IsZero())

	_, err = f.svc.Revenue(ctx, "2025-02-01", "2025-01-01")
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}

func TestFillDays(t *testing.T) {
	end := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	points := []repo.DailyPoint{{Date: "2025-01-02", Count: 4, TotalAmount: decimal.NewFromInt(10), PaidAmount: decimal.Zero}}

	filled := fillDays(points, end, 3)

	require.Len(t, filled, 3)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, []string{filled[0].Date, filled[1].Date, filled[2].Date})
	assert.Equal(t, 4, filled[1].Count)
	assert.True(t, filled[2].TotalAmount.IsZero())
}

func TestParseHelpers(t *testing.T) {
	amount, err := ParseAmount("payment_amount", " 12.50 ")
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("12.5")))

	_, err = ParseAmount("payment_amount", "twelve")
	assert.True(t, errors.Is(err, ErrInvalidAmount))

	id, err := ParseCustomerID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = ParseCustomerID("-1")
	assert.Error(t, err)
}

func TestEventsEmptyForNewOrder(t *testing.T) {
	f := newFixture(t)
	order := f.book(t, "R1", "2025-01-01", "2025-01-02")

	events, err := f.svc.Events(context.Background(), order.OrderID)
	require.NoError(t, err)
	assert.Empty(t, events)
}
