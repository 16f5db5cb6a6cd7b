package redis_test

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/taxdesk/internal/kv"
	"github.com/MrJamesThe3rd/taxdesk/internal/kv/redis"
)

func setupStore(t *testing.T) (*redis.Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.New(client, "taxdesk"), mr
}

func TestStore_CommitWritesPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	s, err := store.Open(ctx)
	require.NoError(t, err)

	defer s.Rollback()

	require.NoError(t, s.Set(ctx, "revenues", `[{"id":"a"}]`))
	assert.False(t, mr.Exists("taxdesk:revenues"), "write must not be visible before commit")

	require.NoError(t, s.Commit())

	got, err := mr.Get("taxdesk:revenues")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"a"}]`, got)
}

func TestStore_Get(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	require.NoError(t, mr.Set("taxdesk:expenses", "[]"))

	s, err := store.Open(ctx)
	require.NoError(t, err)

	defer s.Rollback()

	v, found, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "[]", v)

	_, found, err = s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	s, err := store.Open(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "revenues", "[]"))
	require.NoError(t, s.Rollback())
	assert.ErrorIs(t, s.Commit(), kv.ErrClosed)

	assert.False(t, mr.Exists("taxdesk:revenues"))
}

func TestStore_GetPropagatesServerErrors(t *testing.T) {
	ctx := context.Background()
	store, mr := setupStore(t)

	mr.SetError("ERR simulated failure")

	s, err := store.Open(ctx)
	require.NoError(t, err)

	defer s.Rollback()

	_, _, err = s.Get(ctx, "revenues")
	assert.Error(t, err)
}
