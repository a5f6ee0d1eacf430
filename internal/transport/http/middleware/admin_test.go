package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/cTHE0/restaurant/internal/auth"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

type stubAuth map[string]auth.Identity

func (s stubAuth) Authenticate(_ context.Context, token string) (auth.Identity, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return auth.Identity{}, errorbank.Unauthorized("admin authentication required")
}

func newRouter() *echo.Echo {
	gate := NewAdminGateWith(stubAuth{"good": {ID: 3, Username: "chef"}}, "admin_session")
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.String(http.StatusOK, Identity(c).Username)
	}, gate.Require())
	return e
}

func TestAdminGate(t *testing.T) {
	e := newRouter()

	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
		body   string
	}{
		{name: "no credentials", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "bad token", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, status: http.StatusOK, body: "chef"},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "admin_session", Value: "good"}) }, status: http.StatusOK, body: "chef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"kind":"unauthorized"`)
			}
		})
	}
}
