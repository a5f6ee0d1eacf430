// Package middleware holds HTTP middleware shared by the transport handlers.
package middleware

import (
	"context"
	"strings"

	echo "github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	"github.com/cTHE0/restaurant/internal/service/session"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

const identityKey = "admin.identity"

// Module provides the admin gate to Fx.
var Module = fx.Provide(NewAdminGate)

// Authenticator resolves a session token to an admin identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// AdminGate rejects requests that carry no valid admin session.
type AdminGate struct {
	auth       Authenticator
	cookieName string
}

// NewAdminGate builds the gate over the session service.
func NewAdminGate(sessions *session.Service, cfg config.Config) *AdminGate {
	return NewAdminGateWith(sessions, cfg.Session.CookieName)
}

// NewAdminGateWith builds the gate over any Authenticator.
func NewAdminGateWith(a Authenticator, cookieName string) *AdminGate {
	return &AdminGate{auth: a, cookieName: cookieName}
}

// CookieName is the session cookie the gate reads.
func (g *AdminGate) CookieName() string { return g.cookieName }

// Require resolves the admin identity once and stores it on the context.
func (g *AdminGate) Require() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := g.token(c)
			if token == "" {
				return response.New(c).WithError(errorbank.Unauthorized("admin authentication required")).Build()
			}
			identity, err := g.auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return response.New(c).WithError(err).Build()
			}
			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

func (g *AdminGate) token(c echo.Context) string {
	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(g.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Identity returns the admin resolved by the gate, or a zero identity.
func Identity(c echo.Context) auth.Identity {
	identity, _ := c.Get(identityKey).(auth.Identity)
	return identity
}
