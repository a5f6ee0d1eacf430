package response

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/cTHE0/restaurant/pkg/errorbank"
)

func serve(t *testing.T, build func(c echo.Context) error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	assert.NoError(t, build(c))
	return rec
}

func TestBuildSuccessEnvelope(t *testing.T) {
	rec := serve(t, func(c echo.Context) error {
		return New(c).WithStatus(http.StatusCreated).WithData(map[string]int{"order_id": 1}).WithMeta("count", 1).Build()
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"order_id":1},"meta":{"count":1}}`, rec.Body.String())
}

func TestBuildErrorEnvelope(t *testing.T) {
	rec := serve(t, func(c echo.Context) error {
		return New(c).WithError(errorbank.Validation("empty cart", errorbank.WithDetail("field", "items"))).Build()
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"kind":"validation_error","message":"empty cart","details":{"field":"items"}}}`, rec.Body.String())
}

func TestBuildUnknownErrorIsInternal(t *testing.T) {
	rec := serve(t, func(c echo.Context) error {
		return New(c).WithError(errors.New("boom")).Build()
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"internal"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestBuildTooManyRequestsSetsRetryAfter(t *testing.T) {
	rec := serve(t, func(c echo.Context) error {
		return New(c).WithError(errorbank.TooManyRequests("slow down", errorbank.WithDetail("retry_after", 4))).Build()
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "4", rec.Header().Get("Retry-After"))
}

func TestBuildAppliesHeaders(t *testing.T) {
	rec := serve(t, func(c echo.Context) error {
		return New(c).WithHeader("ETag", `W/"abc"`).WithHeader("", "ignored").WithData([]int{}).Build()
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())
}
