package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/innkeep/internal/config"
	"github.com/Additional-Code/innkeep/internal/presentation/http/response"
	authsvc "github.com/Additional-Code/innkeep/internal/service/auth"
	"github.com/Additional-Code/innkeep/pkg/errorbank"
)

const principalKey = "principal"

// Guard authenticates requests from the session cookie or a bearer token.
type Guard struct {
	svc    *authsvc.Service
	cookie string
}

// NewGuard constructs a Guard.
func NewGuard(svc *authsvc.Service, cfg config.Config) *Guard {
	return &Guard{svc: svc, cookie: cfg.Auth.CookieName}
}

// RequireSession rejects requests without a valid session with 401 "please log in".
func (g *Guard) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := g.svc.Verify(c.Request().Context(), g.token(c))
		if err != nil {
			return response.New(c).WithError(err).Build()
		}
		c.Set(principalKey, *p)
		c.SetRequest(c.Request().WithContext(authsvc.WithPrincipal(c.Request().Context(), *p)))
		return next(c)
	}
}

// RequirePage lets the request through when the principal may open any of pages.
func (g *Guard) RequirePage(pages ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return response.New(c).WithError(errorbank.Unauthorized(authsvc.LoginRequired)).Build()
			}
			for _, page := range pages {
				if g.svc.Allowed(p, page) {
					return next(c)
				}
			}
			return response.New(c).WithError(errorbank.Forbidden("you do not have access to this page",
				errorbank.WithDetail("pages", pages))).Build()
		}
	}
}

// Principal returns the principal attached by RequireSession.
func Principal(c echo.Context) (authsvc.Principal, bool) {
	p, ok := c.Get(principalKey).(authsvc.Principal)
	return p, ok
}

func (g *Guard) token(c echo.Context) string {
	if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(g.cookie); err == nil {
		return cookie.Value
	}
	return ""
}
