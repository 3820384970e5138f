package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/innkeep/internal/cache"
	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/innkeep/service/auth")

// ErrInvalidSession is returned for missing, malformed, expired or revoked tokens.
var ErrInvalidSession = errors.New("invalid session")

// LoginRequired is the message shown to callers without a valid session.
const LoginRequired = "please log in"

// Module provides the auth service and its default credential store to Fx.
var Module = fx.Provide(
	fx.Annotate(NewStaffStore, fx.As(new(CredentialStore))),
	NewService,
)

// Pages lists every page a principal may be granted, in display order.
var Pages = []string{PageOrders, PageRooms, PageCustomers, PageAnalytics, PageEmployees}

// Session is an issued login.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Principal Principal `json:"principal"`
}

type claims struct {
	Name       string `json:"name"`
	Department string `json:"department,omitempty"`
	Admin      bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// Service issues, verifies and revokes signed sessions and checks page permissions.
type Service struct {
	store    CredentialStore
	enforcer *casbin.Enforcer
	secret   []byte
	ttl      time.Duration
	revoked  cache.Store
	logger   *zap.Logger
	now      func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  CredentialStore
	Cache  cache.Store
	Config config.Config
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	enforcer, err := newEnforcer(p.Config.Auth.DepartmentPages)
	if err != nil {
		return nil, err
	}
	if p.Config.Auth.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	revoked := p.Cache
	if cache.Discards(revoked) {
		p.Logger.Warn("cache disabled; session revocations are kept in process memory and do not reach other instances")
		revoked = cache.NewMemoryStore(p.Config.Auth.SessionTTL)
	}
	return &Service{
		store:    p.Store,
		enforcer: enforcer,
		secret:   []byte(p.Config.Auth.SessionSecret),
		ttl:      p.Config.Auth.SessionTTL,
		revoked:  revoked,
		logger:   p.Logger,
		now:      time.Now,
	}, nil
}

// Login verifies credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	ctx, span := serviceTracer.Start(ctx, "AuthService.Login", trace.WithAttributes(attribute.String("auth.username", username)))
	defer span.End()

	p, err := s.store.Authenticate(ctx, username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		span.SetStatus(codes.Error, "invalid credentials")
		s.logger.Info("login rejected", zap.String("username", username))
		return nil, errorbank.Unauthorized("invalid username or password", errorbank.WithCause(err))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "credential store error")
		return nil, errorbank.Internal("failed to log in", errorbank.WithCause(err))
	}

	now := s.now()
	p.TokenID = uuid.NewString()
	p.ExpiresAt = now.Add(s.ttl).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:       p.Name,
		Department: p.Department,
		Admin:      p.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.TokenID,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to issue session", errorbank.WithCause(err))
	}

	s.logger.Info("login succeeded", zap.String("subject", p.Subject), zap.Bool("admin", p.Admin))
	return &Session{Token: signed, ExpiresAt: p.ExpiresAt, Principal: *p}, nil
}

// Verify parses a session token and returns its principal. Revoked tokens are rejected.
func (s *Service) Verify(ctx context.Context, raw string) (*Principal, error) {
	if raw == "" {
		return nil, errorbank.Unauthorized(LoginRequired, errorbank.WithCause(ErrInvalidSession))
	}
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, errorbank.Unauthorized(LoginRequired, errorbank.WithCause(fmt.Errorf("%w: %w", ErrInvalidSession, err)))
	}

	if s.revoked != nil && c.ID != "" {
		_, err := s.revoked.Get(ctx, revokedKey(c.ID))
		switch {
		case err == nil:
			return nil, errorbank.Unauthorized(LoginRequired, errorbank.WithCause(ErrInvalidSession))
		case !errors.Is(err, cache.ErrCacheMiss):
			s.logger.Warn("session revocation lookup failed", zap.Error(err))
		}
	}

	p := &Principal{
		Subject:    c.Subject,
		Name:       c.Name,
		Department: c.Department,
		Admin:      c.Admin,
		TokenID:    c.ID,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p, nil
}

// Logout revokes the principal's token for the rest of its lifetime.
func (s *Service) Logout(ctx context.Context, p Principal) error {
	if p.TokenID == "" {
		return nil
	}
	ttl := p.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.revoked.Set(ctx, revokedKey(p.TokenID), []byte(p.Subject), ttl); err != nil {
		return errorbank.Internal("failed to log out", errorbank.WithCause(err))
	}
	return nil
}

// Allowed reports whether p may open page.
func (s *Service) Allowed(p Principal, page string) bool {
	ok, err := s.enforcer.Enforce(p.Role(), page)
	if err != nil {
		s.logger.Error("permission check failed", zap.String("page", page), zap.Error(err))
		return false
	}
	return ok
}

// PagesFor lists the pages p may open.
func (s *Service) PagesFor(p Principal) []string {
	out := make([]string, 0, len(Pages))
	for _, page := range Pages {
		if s.Allowed(p, page) {
			out = append(out, page)
		}
	}
	return out
}

func revokedKey(id string) string {
	return "sessions:revoked:" + id
}
