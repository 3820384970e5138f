package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	customerrepo "github.com/Additional-Code/innkeep/internal/repository/customer"
	employeerepo "github.com/Additional-Code/innkeep/internal/repository/employee"
	eventrepo "github.com/Additional-Code/innkeep/internal/repository/event"
	orderrepo "github.com/Additional-Code/innkeep/internal/repository/order"
	roomrepo "github.com/Additional-Code/innkeep/internal/repository/room"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	customersvc "github.com/Additional-Code/innkeep/internal/service/customer"
	ordersvc "github.com/Additional-Code/innkeep/internal/service/order"
	roomsvc "github.com/Additional-Code/innkeep/internal/service/room"
	"github.com/Additional-Code/innkeep/internal/testutil"
	transporthttp "github.com/Additional-Code/innkeep/internal/transport/http"
)

type server struct {
	e         *echo.Echo
	conns     *database.Connections
	employees *employeerepo.Repository
}

func newServer(t *testing.T, opts ...func(*config.Config)) *server {
	t.Helper()
	cfg := testutil.Config(t)
	for _, opt := range opts {
		opt(&cfg)
	}
	var s server
	app := fxtest.New(t,
		testutil.Infra(cfg),
		orderrepo.Module, roomrepo.Module, customerrepo.Module, employeerepo.Module, eventrepo.Module,
		ordersvc.Module, roomsvc.Module, customersvc.Module, authsvc.Module,
		fx.Provide(func(orders *ordersvc.Service) roomsvc.OrderCache { return orders }),
		fx.Provide(echo.New),
		transporthttp.Module,
		fx.Populate(&s.e, &s.conns, &s.employees),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)
	return &s
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Total   *int            `json:"total"`
	Page    *int            `json:"page"`
	Error   *struct {
		Kind string `json:"kind"`
	} `json:"error"`
}

func (s *server) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func (s *server) login(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/auth/login", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password))
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "innkeep_session" {
			require.NotEmpty(t, c.Value)
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestOrdersRequireSession(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodGet, "/orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "please log in", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/orders", "", &http.Cookie{Name: "innkeep_session", Value: "garbage"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newServer(t)

	rec, env := s.do(t, http.MethodPost, "/auth/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Kind)

	rec, _ = s.do(t, http.MethodPost, "/auth/login", `{"username":"admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDepartmentWithoutPagesIsForbidden(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()
	require.NoError(t, s.employees.CreateDepartment(ctx, &entity.Department{DepartmentID: "D009", DepartmentName: "Housekeeping"}))
	hash, err := authsvc.HashPassword("mop123")
	require.NoError(t, err)
	require.NoError(t, s.employees.Create(ctx, &entity.Employee{
		EmployeeID: "E100", EmployeeName: "Wu", DepartmentID: "D009",
		Status: entity.EmployeeActive, Username: "cleaner", PasswordHash: hash,
	}))

	cookie := s.login(t, "cleaner", "mop123")
	rec, env := s.do(t, http.MethodGet, "/orders", "", cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "you do not have access to this page", env.Message)

	rec, _ = s.do(t, http.MethodGet, "/auth/me", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderFlow(t *testing.T) {
	s := newServer(t)
	testutil.Room(t, s.conns, "R1", 100)
	guest := testutil.Customer(t, s.conns, "Alice")
	cookie := s.login(t, "admin", "admin123")

	body := fmt.Sprintf(`{"customer_id":%d,"room_number":"R1","check_in_date":"2030-05-01","check_out_date":"2030-05-03"}`, guest.ID)
	rec, env := s.do(t, http.MethodPost, "/orders", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)

	var created struct {
		OrderID     string `json:"order_id"`
		TotalAmount string `json:"total_amount"`
		PaidAmount  string `json:"paid_amount"`
		Days        int    `json:"days"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "200.00", created.TotalAmount)
	assert.Equal(t, "0.00", created.PaidAmount)
	assert.Equal(t, 2, created.Days)

	rec, env = s.do(t, http.MethodPost, "/orders", body, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", env.Error.Kind)

	rec, env = s.do(t, http.MethodGet, "/orders?page=1", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)
	require.NotNil(t, env.Page)
	assert.Equal(t, 1, *env.Page)

	rec, env = s.do(t, http.MethodPost, "/orders/"+created.OrderID+"/payments", `{"payment_amount":"200"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var paid struct {
		PaidAmount    string `json:"paid_amount"`
		PaymentStatus string `json:"payment_status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &paid))
	assert.Equal(t, "200.00", paid.PaidAmount)
	assert.Equal(t, string(entity.PaymentPaid), paid.PaymentStatus)

	rec, _ = s.do(t, http.MethodGet, "/orders/does-not-exist", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func (s *server) department(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, s.employees.CreateDepartment(context.Background(), &entity.Department{DepartmentID: id, DepartmentName: name}))
}

func (s *server) employee(t *testing.T, departmentID, username string) *http.Cookie {
	t.Helper()
	hash, err := authsvc.HashPassword("secret1")
	require.NoError(t, err)
	require.NoError(t, s.employees.Create(context.Background(), &entity.Employee{
		EmployeeID: "E-" + username, EmployeeName: username, DepartmentID: departmentID,
		Status: entity.EmployeeActive, Username: username, PasswordHash: hash,
	}))
	return s.login(t, username, "secret1")
}

func (s *server) book(t *testing.T, cookie *http.Cookie, customerID int64, room, checkIn, checkOut string) string {
	t.Helper()
	body := fmt.Sprintf(`{"customer_id":%d,"room_number":%q,"check_in_date":%q,"check_out_date":%q}`, customerID, room, checkIn, checkOut)
	rec, env := s.do(t, http.MethodPost, "/orders", body, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	var created struct {
		OrderID string `json:"order_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	return created.OrderID
}

func checkInDates(t *testing.T, env envelope) []string {
	t.Helper()
	var items []struct {
		CheckInDate string `json:"check_in_date"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &items))
	dates := make([]string, 0, len(items))
	for _, it := range items {
		dates = append(dates, it.CheckInDate)
	}
	return dates
}

func TestRoomRoutes(t *testing.T) {
	s := newServer(t)
	cookie := s.login(t, "admin", "admin123")

	rec, env := s.do(t, http.MethodPost, "/rooms", `{"room_number":"R2","room_type":"double","floor":2,"price":"180","capacity":2,"area":30}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)

	rec, env = s.do(t, http.MethodPost, "/rooms", `{"room_number":"R2","room_type":"double","price":"180"}`, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code, env.Message)

	rec, env = s.do(t, http.MethodPost, "/rooms", `{"room_number":"R3","room_type":""}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code, env.Message)

	rec, env = s.do(t, http.MethodGet, "/rooms", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)

	rec, env = s.do(t, http.MethodPut, "/rooms/R2", `{"price":"200","description":"sea view"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var room struct {
		Price       string `json:"price"`
		Status      string `json:"status"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, "200", room.Price)
	assert.Equal(t, "sea view", room.Description)

	rec, env = s.do(t, http.MethodGet, "/rooms/R2", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, string(entity.RoomVacant), room.Status)

	rec, _ = s.do(t, http.MethodGet, "/rooms/R404", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/rooms/occupancy", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var occ struct {
		TotalRooms    int `json:"total_rooms"`
		OccupiedRooms int `json:"occupied_rooms"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &occ))
	assert.Equal(t, 1, occ.TotalRooms)
	assert.Zero(t, occ.OccupiedRooms)

	rec, env = s.do(t, http.MethodDelete, "/rooms/R2", "", cookie)
	assert.Equal(t, http.StatusOK, rec.Code, env.Message)
	rec, _ = s.do(t, http.MethodGet, "/rooms/R2", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRoomOrdersHonourBounds(t *testing.T) {
	s := newServer(t)
	testutil.Room(t, s.conns, "R1", 100)
	guest := testutil.Customer(t, s.conns, "Alice")
	cookie := s.login(t, "admin", "admin123")

	s.book(t, cookie, guest.ID, "R1", "2030-05-01", "2030-05-03")
	s.book(t, cookie, guest.ID, "R1", "2030-05-10", "2030-05-12")
	s.book(t, cookie, guest.ID, "R1", "2030-06-01", "2030-06-03")

	rec, env := s.do(t, http.MethodGet, "/rooms/R1/orders", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	require.NotNil(t, env.Total)
	assert.Equal(t, 3, *env.Total)
	assert.Equal(t, []string{"2030-06-01", "2030-05-10", "2030-05-01"}, checkInDates(t, env))

	rec, env = s.do(t, http.MethodGet, "/rooms/R1/orders?start_date=2030-05-05&end_date=2030-05-31", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, []string{"2030-05-10"}, checkInDates(t, env))

	rec, env = s.do(t, http.MethodGet, "/rooms/R1/orders?start_date=2030-05-02", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	assert.Equal(t, []string{"2030-06-01", "2030-05-10"}, checkInDates(t, env))

	rec, _ = s.do(t, http.MethodGet, "/rooms/R1/orders?start_date=05/02/2030", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodDelete, "/rooms/R1", "", cookie)
	assert.Equal(t, http.StatusConflict, rec.Code, env.Message)
}

func TestCustomerRoutes(t *testing.T) {
	s := newServer(t)
	testutil.Room(t, s.conns, "R1", 100)
	cookie := s.login(t, "admin", "admin123")

	rec, env := s.do(t, http.MethodPost, "/customers", `{"name":"Bob","phone":"13900000000"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, env.Message)
	var bob struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &bob))
	require.NotZero(t, bob.ID)

	rec, _ = s.do(t, http.MethodPost, "/customers", `{"name":"  "}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = s.do(t, http.MethodGet, "/customers", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Total)
	assert.Equal(t, 1, *env.Total)

	path := fmt.Sprintf("/customers/%d", bob.ID)
	rec, env = s.do(t, http.MethodGet, path, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, _ = s.do(t, http.MethodGet, "/customers/abc", "", cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/customers/9999", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.book(t, cookie, bob.ID, "R1", "2030-05-01", "2030-05-03")
	s.book(t, cookie, bob.ID, "R1", "2030-07-01", "2030-07-02")

	rec, env = s.do(t, http.MethodGet, path+"/orders", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	require.NotNil(t, env.Total)
	assert.Equal(t, 2, *env.Total)
	assert.Equal(t, []string{"2030-07-01", "2030-05-01"}, checkInDates(t, env))
}

func TestRoomAndCustomerPageGuards(t *testing.T) {
	s := newServer(t, func(cfg *config.Config) {
		cfg.Auth.DepartmentPages["Housekeeping"] = []string{"rooms"}
		cfg.Auth.DepartmentPages["Concierge"] = []string{"customers"}
	})
	testutil.Room(t, s.conns, "R1", 100)
	guest := testutil.Customer(t, s.conns, "Alice")
	customerOrders := fmt.Sprintf("/customers/%d/orders", guest.ID)
	s.department(t, "D101", "Housekeeping")
	s.department(t, "D102", "Concierge")
	s.department(t, "D103", "Finance")
	maid := s.employee(t, "D101", "maid")
	host := s.employee(t, "D102", "host")
	clerk := s.employee(t, "D103", "clerk")

	tests := []struct {
		name   string
		cookie *http.Cookie
		path   string
		status int
	}{
		{"rooms page lists rooms", maid, "/rooms", http.StatusOK},
		{"rooms page reads room orders", maid, "/rooms/R1/orders", http.StatusOK},
		{"rooms page lacks customers", maid, customerOrders, http.StatusForbidden},
		{"customers page reads customer orders", host, customerOrders, http.StatusOK},
		{"customers page lacks room orders", host, "/rooms/R1/orders", http.StatusForbidden},
		{"orders page reads room orders", clerk, "/rooms/R1/orders", http.StatusOK},
		{"orders page reads customer orders", clerk, customerOrders, http.StatusOK},
		{"orders page lacks rooms", clerk, "/rooms", http.StatusForbidden},
		{"analytics page reads occupancy", clerk, "/rooms/occupancy", http.StatusOK},
		{"customers page lacks occupancy", host, "/rooms/occupancy", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, "", tt.cookie)
			assert.Equal(t, tt.status, rec.Code, env.Message)
		})
	}
}
