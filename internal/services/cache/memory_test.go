package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	mc := NewMemoryCache(1, time.Hour)
	defer mc.Stop()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))

	v, ok := mc.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "1", string(v))

	require.NoError(t, mc.Delete(ctx, "a"))
	_, ok = mc.Get(ctx, "a")
	assert.False(t, ok)

	stats := mc.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(1), stats.Deletes)
	assert.Zero(t, stats.Size)
}

func TestMemoryCache_Expiry(t *testing.T) {
	mc := NewMemoryCache(0, time.Hour)
	defer mc.Stop()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "short", []byte("x"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, ok := mc.Get(ctx, "short")
	assert.False(t, ok)
	assert.Equal(t, int64(1), mc.Stats().Evictions)
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	mc := NewMemoryCache(0, time.Hour)
	defer mc.Stop()
	ctx := context.Background()

	for _, k := range []string{"reactions:p1:u1", "reactions:p1:u2", "reactions:p2:u1"} {
		require.NoError(t, mc.Set(ctx, k, []byte("v"), time.Minute))
	}
	require.NoError(t, mc.DeletePrefix(ctx, "reactions:p1:"))

	_, ok := mc.Get(ctx, "reactions:p1:u1")
	assert.False(t, ok)
	_, ok = mc.Get(ctx, "reactions:p2:u1")
	assert.True(t, ok)
}

func TestMemoryCache_EvictsWhenFull(t *testing.T) {
	mc := NewMemoryCache(1, time.Hour)
	defer mc.Stop()
	ctx := context.Background()

	big := []byte(strings.Repeat("x", 600*1024))
	require.NoError(t, mc.Set(ctx, "first", big, time.Minute))
	require.NoError(t, mc.Set(ctx, "second", big, time.Hour))

	_, ok := mc.Get(ctx, "first")
	assert.False(t, ok, "entry closest to expiry is evicted")
	_, ok = mc.Get(ctx, "second")
	assert.True(t, ok)
	assert.LessOrEqual(t, mc.Stats().Size, int64(1024*1024))
}

func TestJSONHelpers(t *testing.T) {
	mc := NewMemoryCache(0, time.Hour)
	defer mc.Stop()
	ctx := context.Background()

	type summary struct {
		Likes int `json:"likes"`
	}
	require.NoError(t, SetJSON(ctx, mc, "k", summary{Likes: 3}, time.Minute))

	var got summary
	require.True(t, GetJSON(ctx, mc, "k", &got))
	assert.Equal(t, 3, got.Likes)

	require.NoError(t, mc.Set(ctx, "bad", []byte("{"), time.Minute))
	assert.False(t, GetJSON(ctx, mc, "bad", &got))
	assert.False(t, GetJSON(ctx, mc, "missing", &got))
}

func TestStopIsIdempotent(t *testing.T) {
	mc := NewMemoryCache(0, time.Millisecond)
	mc.Stop()
	mc.Stop()
}
