// Package session serves admin login, logout and identity endpoints.
package session

import (
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/presentation/http/response"
	service "github.com/cTHE0/restaurant/internal/service/session"
	"github.com/cTHE0/restaurant/internal/transport/http/middleware"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cTHE0/restaurant/transport/http/session")

// Handler exposes admin session endpoints.
type Handler struct {
	svc    *service.Service
	cookie config.Session
}

// NewHandler constructs a session Handler.
func NewHandler(svc *service.Service, cfg config.Config) *Handler {
	return &Handler{svc: svc, cookie: cfg.Session}
}

// Register routes. Login and logout are public; me requires a session.
func Register(e *echo.Echo, gate *middleware.AdminGate, h *Handler) {
	e.POST("/api/admin/login", h.login)
	e.POST("/api/admin/logout", h.logout)
	e.GET("/api/admin/me", h.me, gate.Require())
}

type loginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Admin     auth.Identity `json:"admin"`
}

func (h *Handler) login(c echo.Context) error {
	b := response.New(c)

	var payload struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.Validation("invalid login payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "admin.login")
	defer span.End()

	sess, err := h.svc.Login(ctx, payload.Username, payload.Password)
	if err != nil {
		return b.WithError(err).Build()
	}

	c.SetCookie(&http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return b.WithData(loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Admin: sess.Identity}).Build()
}

func (h *Handler) logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return response.New(c).WithData(map[string]bool{"logged_out": true}).Build()
}

func (h *Handler) me(c echo.Context) error {
	return response.New(c).WithData(middleware.Identity(c)).Build()
}
