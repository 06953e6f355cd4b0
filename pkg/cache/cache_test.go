package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, filepath.Join(t.TempDir(), "cache.db"), DefaultTTL, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestGet_ReadThrough(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	store.RegisterLoader(KeyNearbyJobs, func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte(`[{"id":1}]`), nil
	})

	// First read loads, second read hits the cache
	body, err := store.Get(ctx, KeyNearbyJobs)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(body))

	_, err = store.Get(ctx, KeyNearbyJobs)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestGet_StaleEntryReloads(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	store.RegisterLoader(KeyMyBids, func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	})

	_, err := store.Get(ctx, KeyMyBids)
	require.NoError(t, err)

	// Age the entry past the 5-minute staleness window
	store.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	_, err = store.Get(ctx, KeyMyBids)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestInvalidate_NextReadGoesToBackend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	store.RegisterLoader(KeyBidJobs, func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	})

	_, err := store.Get(ctx, KeyBidJobs)
	require.NoError(t, err)

	require.NoError(t, store.Invalidate(ctx, KeyBidJobs, "some-unknown-key"))

	_, err = store.Get(ctx, KeyBidJobs)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestForceRefresh_BypassesTTL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	calls := 0
	store.RegisterLoader(KeyNearbyJobs, func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	})

	_, err := store.Get(ctx, KeyNearbyJobs)
	require.NoError(t, err)
	_, err = store.ForceRefresh(ctx, KeyNearbyJobs)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestGet_LoaderErrorPropagates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("backend down")
	store.RegisterLoader(KeyMyBids, func(ctx context.Context) ([]byte, error) {
		return nil, boom
	})

	_, err := store.Get(ctx, KeyMyBids)
	assert.ErrorIs(t, err, boom)
}

func TestGet_NoLoaderRegistered(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "unregistered")
	assert.ErrorIs(t, err, ErrNoLoader)
}

func TestJobDetailsKey(t *testing.T) {
	assert.Equal(t, "job-details:42", JobDetailsKey(42))
}
