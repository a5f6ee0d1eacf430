package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemory(time.Minute).(*memoryStore)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "menu:public", []byte("v1"), 0))
	got, err := store.Get(ctx, "menu:public")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "menu:public")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryStoreDeleteAndCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(time.Minute)

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, time.Hour))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, store.Delete(ctx, "k"))
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.Error(t, store.Set(ctx, "", value, 0))
}

func TestNoopStoreAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	store := NewNoop()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
