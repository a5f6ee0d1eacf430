package migration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cTHE0/restaurant/internal/migration"
	"github.com/cTHE0/restaurant/internal/testutil"
)

func TestUpDownRoundTrip(t *testing.T) {
	ctx := context.Background()
	conns := testutil.NewDB(t)

	mig, err := migration.New(conns, zap.NewNop())
	require.NoError(t, err)

	version, err := mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	// re-applying is a no-op
	require.NoError(t, mig.Up(ctx))

	require.NoError(t, mig.Down(ctx, 1, false))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	require.NoError(t, mig.Down(ctx, 0, true))
	version, err = mig.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	conns := testutil.NewDB(t)
	conns.Driver = "oracle"

	_, err := migration.New(conns, zap.NewNop())
	assert.Error(t, err)
}
