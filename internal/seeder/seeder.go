package seeder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	ordersvc "github.com/Additional-Code/innkeep/internal/service/order"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	orders *ordersvc.Service
	logger *zap.Logger
	now    func() time.Time
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, orders *ordersvc.Service, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, orders: orders, logger: logger, now: time.Now}
}

type roomKind struct {
	name     string
	price    int64
	capacity int
	area     int
}

var (
	single = roomKind{name: "single", price: 180, capacity: 1, area: 18}
	double = roomKind{name: "double", price: 280, capacity: 2, area: 26}
	deluxe = roomKind{name: "deluxe", price: 450, capacity: 3, area: 40}
)

// All seeds reference data and, on an empty orders table, a handful of sample bookings.
func (s *Seeder) All(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"departments", s.Departments},
		{"employees", s.Employees},
		{"rooms", s.Rooms},
		{"customers", s.Customers},
		{"orders", s.Orders},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

// Departments seeds the stock departments.
func (s *Seeder) Departments(ctx context.Context) error {
	names := []string{"Front Office", "Housekeeping", "Food & Beverage", "Finance", "Human Resources"}
	depts := make([]entity.Department, 0, len(names))
	for i, name := range names {
		depts = append(depts, entity.Department{DepartmentID: fmt.Sprintf("D%03d", i+1), DepartmentName: name})
	}
	if _, err := s.db.NewInsert().Model(&depts).Ignore().Exec(ctx); err != nil {
		return err
	}
	s.logger.Info("seeded departments", zap.Int("count", len(depts)))
	return nil
}

// Employees seeds a front desk clerk and a finance officer that can sign in.
func (s *Seeder) Employees(ctx context.Context) error {
	staff := []struct {
		id, name, dept, position, username, password string
	}{
		{"E001", "Front Desk", "D001", "Receptionist", "frontdesk", "frontdesk123"},
		{"E002", "Finance Officer", "D004", "Accountant", "finance", "finance123"},
	}
	employees := make([]entity.Employee, 0, len(staff))
	for _, st := range staff {
		hash, err := authsvc.HashPassword(st.password)
		if err != nil {
			return err
		}
		employees = append(employees, entity.Employee{
			EmployeeID:   st.id,
			EmployeeName: st.name,
			DepartmentID: st.dept,
			PositionName: st.position,
			Status:       entity.EmployeeActive,
			Username:     st.username,
			PasswordHash: hash,
		})
	}
	if _, err := s.db.NewInsert().Model(&employees).Ignore().Exec(ctx); err != nil {
		return err
	}
	s.logger.Info("seeded employees", zap.Int("count", len(employees)))
	return nil
}

// Rooms seeds twenty rooms on each of five floors.
func (s *Seeder) Rooms(ctx context.Context) error {
	now := s.now().UTC()
	rooms := make([]entity.Room, 0, 100)
	for floor := 1; floor <= 5; floor++ {
		for n := 1; n <= 20; n++ {
			kind := single
			switch {
			case n > 16:
				kind = deluxe
			case n > 10:
				kind = double
			}
			rooms = append(rooms, entity.Room{
				RoomNumber: fmt.Sprintf("%d%02d", floor, n),
				RoomType:   kind.name,
				Floor:      floor,
				Price:      decimal.NewFromInt(kind.price),
				Capacity:   kind.capacity,
				Area:       kind.area,
				HasWindow:  n%2 == 1,
				Status:     entity.RoomVacant,
				CreatedAt:  now,
			})
		}
	}
	if _, err := s.db.NewInsert().Model(&rooms).Ignore().Exec(ctx); err != nil {
		return err
	}
	s.logger.Info("seeded rooms", zap.Int("count", len(rooms)))
	return nil
}

// Customers seeds sample guests when none exist.
func (s *Seeder) Customers(ctx context.Context) error {
	n, err := s.db.NewSelect().Model((*entity.Customer)(nil)).Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	now := s.now().UTC()
	customers := []entity.Customer{
		{Name: "Alice Martin", Phone: "13800000001", IDCard: "110101199001011234", CreatedAt: now},
		{Name: "Bruno Costa", Phone: "13800000002", IDCard: "110101198505052345", CreatedAt: now},
		{Name: "Chen Wei", Phone: "13800000003", IDCard: "110101199212123456", CreatedAt: now},
	}
	if _, err := s.db.NewInsert().Model(&customers).Exec(ctx); err != nil {
		return err
	}
	s.logger.Info("seeded customers", zap.Int("count", len(customers)))
	return nil
}

// Orders books sample stays through the order service when the orders table is empty.
func (s *Seeder) Orders(ctx context.Context) error {
	n, err := s.db.NewSelect().Model((*entity.Order)(nil)).Count(ctx)
	if err != nil || n > 0 {
		return err
	}
	var customerIDs []int64
	if err := s.db.NewSelect().Model((*entity.Customer)(nil)).Column("id").OrderExpr("id ASC").Limit(3).Scan(ctx, &customerIDs); err != nil {
		return err
	}
	if len(customerIDs) == 0 {
		return nil
	}

	today := s.now().UTC()
	day := func(offset int) string { return today.AddDate(0, 0, offset).Format(entity.DateLayout) }
	samples := []ordersvc.CreateInput{
		{RoomNumber: "101", CheckInDate: day(0), CheckOutDate: day(2), EmployeeID: "E001"},
		{RoomNumber: "112", CheckInDate: day(1), CheckOutDate: day(4), EmployeeID: "E001", SpecialRequests: "late arrival"},
		{RoomNumber: "218", CheckInDate: day(-3), CheckOutDate: day(1), OrderStatus: string(entity.OrderCheckedIn)},
	}
	for i, in := range samples {
		in.CustomerID = customerIDs[i%len(customerIDs)]
		if _, err := s.orders.Create(ctx, in); err != nil {
			return err
		}
	}
	s.logger.Info("seeded orders", zap.Int("count", len(samples)))
	return nil
}
