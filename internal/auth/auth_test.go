package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cTHE0/restaurant/internal/clock"
	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

func testTokens(now *time.Time) *Tokens {
	cfg := config.Config{Session: config.Session{
		Secret: "0123456789abcdef0123",
		TTL:    time.Hour,
		Issuer: "restaurant",
	}}
	return NewTokens(cfg, clock.Func(func() time.Time { return *now }))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)
	assert.True(t, CheckPassword(hash, "admin123"))
	assert.False(t, CheckPassword(hash, "admin124"))

	_, err = HashPassword("")
	assert.Error(t, err)
}

func TestTokensIssueAndParse(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := testTokens(&now)

	raw, expires, err := tokens.Issue(Identity{ID: 7, Username: "chef"})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	id, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: 7, Username: "chef"}, id)

	now = now.Add(2 * time.Hour)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokensRejectForeignSignature(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tokens := testTokens(&now)

	other := NewTokens(config.Config{Session: config.Session{
		Secret: "another-secret-value",
		TTL:    time.Hour,
		Issuer: "restaurant",
	}}, clock.Fixed(now))
	raw, _, err := other.Issue(Identity{ID: 1, Username: "admin"})
	require.NoError(t, err)

	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequire(t *testing.T) {
	assert.True(t, errorbank.IsKind(Require(Identity{}), errorbank.KindUnauthorized))
	assert.NoError(t, Require(Identity{ID: 1, Username: "admin"}))
}
