package errorbank_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"github.com/cTHE0/restaurant/pkg/errorbank"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *errorbank.AppError
		status int
		code   codes.Code
	}{
		{errorbank.Validation("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{errorbank.InvalidStatus("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{errorbank.BadRequest("bad"), http.StatusBadRequest, codes.InvalidArgument},
		{errorbank.Unauthorized("who"), http.StatusUnauthorized, codes.Unauthenticated},
		{errorbank.NotFound("gone"), http.StatusNotFound, codes.NotFound},
		{errorbank.Conflict("dup"), http.StatusConflict, codes.AlreadyExists},
		{errorbank.TooManyRequests("slow"), http.StatusTooManyRequests, codes.ResourceExhausted},
		{errorbank.Persistence("db"), http.StatusInternalServerError, codes.Internal},
		{errorbank.Internal("boom"), http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.StatusCode())
			assert.Equal(t, tt.code, tt.err.GRPCCode())
		})
	}
}

func TestFromWrapsUnknownErrors(t *testing.T) {
	cause := errors.New("driver exploded")
	appErr := errorbank.From(cause)
	require.NotNil(t, appErr)

	assert.Equal(t, errorbank.KindInternal, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, errorbank.From(nil))
}

func TestFromKeepsWrappedAppError(t *testing.T) {
	inner := errorbank.NotFound("order not found", errorbank.WithDetail("id", 7))
	wrapped := errors.Join(errors.New("context"), inner)

	appErr := errorbank.From(wrapped)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
	assert.Equal(t, 7, appErr.Details()["id"])
	assert.True(t, errorbank.IsKind(wrapped, errorbank.KindNotFound))
	assert.False(t, errorbank.IsKind(nil, errorbank.KindNotFound))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := errorbank.Persistence("failed to create order", errorbank.WithCause(errors.New("disk full")))
	assert.Equal(t, "failed to create order: disk full", err.Error())

	bare := errorbank.New(errorbank.KindConflict, "")
	assert.Equal(t, "conflict", bare.Message())
}

func TestGRPCStatusHidesCause(t *testing.T) {
	err := errorbank.Conflict("username taken", errorbank.WithCause(errors.New("UNIQUE constraint failed")))

	st := err.GRPCStatus()
	assert.Equal(t, codes.AlreadyExists, st.Code())
	assert.Equal(t, "username taken", st.Message())
}
