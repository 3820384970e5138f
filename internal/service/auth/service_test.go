package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/innkeep/internal/cache"
	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/database"
	"github.com/Additional-Code/innkeep/internal/entity"
	employeerepo "github.com/Additional-Code/innkeep/internal/repository/employee"
	"github.com/Additional-Code/innkeep/internal/testutil"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

type stubStore map[string]Principal

func (s stubStore) Authenticate(_ context.Context, username, password string) (*Principal, error) {
	p, ok := s[username+":"+password]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return &p, nil
}

func newTestService(t *testing.T, store CredentialStore) (*Service, *time.Time) {
	t.Helper()
	cfg := testutil.Config(t)
	svc, err := NewService(Params{
		Store:  store,
		Cache:  cache.NewMemoryStore(time.Hour),
		Config: cfg,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestLoginAndVerify(t *testing.T) {
	svc, _ := newTestService(t, stubStore{
		"frontdesk:secret": {Subject: "E001", Name: "Front Desk", Department: "Front Office"},
	})
	ctx := context.Background()

	session, err := svc.Login(ctx, "frontdesk", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "E001", session.Principal.Subject)

	p, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, "E001", p.Subject)
	assert.Equal(t, "Front Office", p.Department)
	assert.False(t, p.Admin)
	assert.Equal(t, session.Principal.TokenID, p.TokenID)

	_, err = svc.Login(ctx, "frontdesk", "wrong")
	assert.True(t, errorbank.Is(err, errorbank.KindUnauthorized))
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	svc, now := newTestService(t, stubStore{"admin:admin123": {Subject: "admin", Admin: true}})
	ctx := context.Background()
	session, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":    "",
		"garbage":  "not-a-token",
		"tampered": session.Token + "x",
	} {
		_, err := svc.Verify(ctx, token)
		assert.True(t, errors.Is(err, ErrInvalidSession), name)
		assert.Equal(t, LoginRequired, errorbank.From(err).Message(), name)
	}

	*now = now.Add(2 * time.Hour)
	_, err = svc.Verify(ctx, session.Token)
	assert.True(t, errors.Is(err, ErrInvalidSession), "expired")
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t, stubStore{"admin:admin123": {Subject: "admin", Admin: true}})
	ctx := context.Background()
	session, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)

	p, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, *p))

	_, err = svc.Verify(ctx, session.Token)
	assert.True(t, errors.Is(err, ErrInvalidSession))
}

func TestLogoutRevokesTokenWithoutSharedCache(t *testing.T) {
	cfg := testutil.Config(t)
	cfg.Cache = config.Cache{Driver: "noop"}
	noop, err := cache.NewStore(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.NoError(t, err)
	require.True(t, cache.Discards(noop))

	core, logs := observer.New(zapcore.WarnLevel)
	svc, err := NewService(Params{
		Store:  stubStore{"admin:admin123": {Subject: "admin", Admin: true}},
		Cache:  noop,
		Config: cfg,
		Logger: zap.New(core),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessageSnippet("session revocations are kept in process memory").Len())

	ctx := context.Background()
	session, err := svc.Login(ctx, "admin", "admin123")
	require.NoError(t, err)
	p, err := svc.Verify(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, *p))

	_, err = svc.Verify(ctx, session.Token)
	assert.True(t, errors.Is(err, ErrInvalidSession), "bearer token must not outlive logout")
}

func TestAllowed(t *testing.T) {
	svc, _ := newTestService(t, stubStore{})
	admin := Principal{Subject: "admin", Admin: true}
	frontDesk := Principal{Subject: "E001", Department: "Front Office"}
	finance := Principal{Subject: "E002", Department: "Finance"}
	unknown := Principal{Subject: "E003", Department: "Kitchen"}

	assert.Equal(t, Pages, svc.PagesFor(admin))
	assert.Equal(t, []string{PageOrders, PageRooms, PageCustomers}, svc.PagesFor(frontDesk))
	assert.True(t, svc.Allowed(finance, PageAnalytics))
	assert.False(t, svc.Allowed(finance, PageRooms))
	assert.Empty(t, svc.PagesFor(unknown))
}

func TestNewServiceRequiresSecret(t *testing.T) {
	cfg := config.Config{}
	_, err := NewService(Params{Store: stubStore{}, Config: cfg, Logger: zap.NewNop()})
	assert.Error(t, err)
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{Subject: "E001"})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "E001", p.Subject)
}

func TestStaffStore(t *testing.T) {
	var (
		conns     *database.Connections
		employees *employeerepo.Repository
		cfg       config.Config
	)
	app := fxtest.New(t, testutil.Infra(testutil.Config(t)), employeerepo.Module, fx.Populate(&conns, &employees, &cfg))
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	ctx := context.Background()
	require.NoError(t, employees.CreateDepartment(ctx, &entity.Department{DepartmentID: "D001", DepartmentName: "Front Office"}))
	hash, err := HashPassword("frontdesk123")
	require.NoError(t, err)
	require.NoError(t, employees.Create(ctx, &entity.Employee{
		EmployeeID: "E001", EmployeeName: "Lin", DepartmentID: "D001",
		Status: entity.EmployeeActive, Username: "frontdesk", PasswordHash: hash,
	}))
	require.NoError(t, employees.Create(ctx, &entity.Employee{
		EmployeeID: "E009", EmployeeName: "Gone", DepartmentID: "D001",
		Status: "inactive", Username: "former", PasswordHash: hash,
	}))

	store := NewStaffStore(cfg, employees)

	p, err := store.Authenticate(ctx, "frontdesk", "frontdesk123")
	require.NoError(t, err)
	assert.Equal(t, Principal{Subject: "E001", Name: "Lin", Department: "Front Office"}, *p)

	admin, err := store.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, admin.Admin)

	for _, creds := range [][2]string{
		{"frontdesk", "nope"},
		{"former", "frontdesk123"},
		{"admin", "nope"},
		{"ghost", "x"},
		{"", ""},
	} {
		_, err := store.Authenticate(ctx, creds[0], creds[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, creds[0])
	}
}
