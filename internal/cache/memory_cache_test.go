package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(1024, time.Hour)
	id := uuid.New()

	_, err := mc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, mc.Set(ctx, id, []byte("xkt")))
	data, err := mc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("xkt"), data)

	stats := mc.Stats(ctx)
	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, int64(3), stats.SizeBytes)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 50.0, stats.HitRate)
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(10, time.Hour)
	clock := time.Now()
	mc.now = func() time.Time { return clock }

	first, second, third := uuid.New(), uuid.New(), uuid.New()
	require.NoError(t, mc.Set(ctx, first, make([]byte, 4)))
	clock = clock.Add(time.Second)
	require.NoError(t, mc.Set(ctx, second, make([]byte, 4)))
	clock = clock.Add(time.Second)
	_, err := mc.Get(ctx, first)
	require.NoError(t, err)
	clock = clock.Add(time.Second)

	require.NoError(t, mc.Set(ctx, third, make([]byte, 4)))

	_, err = mc.Get(ctx, second)
	assert.ErrorIs(t, err, ErrMiss)
	_, err = mc.Get(ctx, first)
	assert.NoError(t, err)
	assert.Equal(t, int64(8), mc.Stats(ctx).SizeBytes)
}

func TestMemoryCache_RejectsOversizedEntry(t *testing.T) {
	mc := NewMemoryCache(4, time.Hour)
	err := mc.Set(context.Background(), uuid.New(), make([]byte, 5))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestMemoryCache_OverwriteKeepsSizeAccurate(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(10, time.Hour)
	id := uuid.New()

	require.NoError(t, mc.Set(ctx, id, make([]byte, 6)))
	require.NoError(t, mc.Set(ctx, id, make([]byte, 8)))
	assert.Equal(t, int64(8), mc.Stats(ctx).SizeBytes)
	assert.Equal(t, 1, mc.Stats(ctx).Objects)
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(100, time.Minute)
	clock := time.Now()
	mc.now = func() time.Time { return clock }

	expiredOnRead, expiredOnSweep := uuid.New(), uuid.New()
	require.NoError(t, mc.Set(ctx, expiredOnRead, []byte("a")))
	require.NoError(t, mc.Set(ctx, expiredOnSweep, []byte("b")))

	clock = clock.Add(2 * time.Minute)
	_, err := mc.Get(ctx, expiredOnRead)
	assert.ErrorIs(t, err, ErrMiss)

	assert.Equal(t, 1, mc.sweep())
	assert.Equal(t, 0, mc.Stats(ctx).Objects)
	assert.Zero(t, mc.Stats(ctx).SizeBytes)
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(100, time.Hour)
	a, b := uuid.New(), uuid.New()
	require.NoError(t, mc.Set(ctx, a, []byte("a")))
	require.NoError(t, mc.Set(ctx, b, []byte("b")))

	require.NoError(t, mc.Delete(ctx, a))
	require.NoError(t, mc.Delete(ctx, a))
	assert.Equal(t, 1, mc.Stats(ctx).Objects)

	require.NoError(t, mc.Clear(ctx))
	assert.Equal(t, LayerStats{Name: "memory"}, mc.Stats(ctx))
}

func TestMemoryCache_RunStopsOnCancel(t *testing.T) {
	mc := NewMemoryCache(100, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mc.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
