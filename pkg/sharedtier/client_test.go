package sharedtier

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, opts ...Option) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	c, err := NewFromClient(rdb, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

// =============================================================================
// 工厂函数测试
// =============================================================================

func TestNew_WithEmptyAddr_ReturnsError(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyAddr)
}

func TestNew_WithInvalidPoolSize_ReturnsError(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := New(mr.Addr(), WithPoolSize(-1))
	assert.ErrorIs(t, err, ErrInvalidPoolSize)
}

func TestNew_WithUnreachableBackend_StillSucceeds(t *testing.T) {
	// 构造时连不上后端不是错误，熔断器会接管后续失败
	c, err := New("127.0.0.1:1", WithPingAttempts(1), WithOpTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.Equal(t, StateHealthy, c.State())
}

func TestNewFromClient_WithNilClient_ReturnsError(t *testing.T) {
	_, err := NewFromClient(nil)
	assert.ErrorIs(t, err, ErrNilClient)
}

func TestNew_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := New(mr.Addr(), WithPingAttempts(1))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	val, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)
}

// =============================================================================
// 单键操作测试
// =============================================================================

func TestClient_Get_MissingKey_NotAnError(t *testing.T) {
	c, _ := newTestClient(t)

	val, found, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestClient_Get_EmptyKey_ReturnsError(t *testing.T) {
	c, _ := newTestClient(t)

	_, _, err := c.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestClient_Set_WithTTL_KeyExpires(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))

	// miniredis 的时钟需要手动推进
	mr.FastForward(2 * time.Second)

	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_Del_MissingKey_NotAnError(t *testing.T) {
	c, _ := newTestClient(t)
	assert.NoError(t, c.Del(context.Background(), "nope"))
}

func TestClient_Del_RemovesKeys(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Del(ctx, "a", "b"))

	_, found, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

// =============================================================================
// 批量操作测试
// =============================================================================

func TestClient_MGet_MixedHitsAndMisses(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	got, err := c.MGet(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "c": []byte("3")}, got)
}

func TestClient_MGet_NoKeys_ReturnsEmpty(t *testing.T) {
	c, _ := newTestClient(t)

	got, err := c.MGet(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClient_MSet_AllKeysVisible(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	items := map[string][]byte{
		"a": []byte("1"),
		"b": []byte("2"),
		"c": []byte("3"),
	}
	require.NoError(t, c.MSet(ctx, items, 0))

	got, err := c.MGet(ctx, "a", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestClient_MSet_AppliesTTLPerKey(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.MSet(ctx, map[string][]byte{"a": []byte("1")}, time.Second))
	mr.FastForward(2 * time.Second)

	_, found, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_DeleteByPrefix(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "app:a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "app:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "other:c", []byte("3"), 0))

	n, err := c.DeleteByPrefix(ctx, "app:")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, found, err := c.Get(ctx, "other:c")
	require.NoError(t, err)
	assert.True(t, found)
}

// =============================================================================
// 熔断与状态机测试
// =============================================================================

func TestClient_ConsecutiveFailures_TripsToDegraded(t *testing.T) {
	c, mr := newTestClient(t, WithFailureThreshold(3), WithOpTimeout(time.Second))
	ctx := context.Background()

	mr.SetError("backend down")
	for i := 0; i < 3; i++ {
		err := c.Ping(ctx)
		assert.Error(t, err)
	}

	assert.Equal(t, StateDegraded, c.State())

	// 熔断中的操作立即返回 ErrUnavailable，不触碰后端
	err := c.Set(ctx, "k", []byte("v"), 0)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_Degraded_RecoversAfterCooldown(t *testing.T) {
	c, mr := newTestClient(t,
		WithFailureThreshold(2),
		WithCooldown(50*time.Millisecond),
		WithOpTimeout(time.Second),
	)
	ctx := context.Background()

	mr.SetError("backend down")
	_ = c.Ping(ctx)
	_ = c.Ping(ctx)
	require.Equal(t, StateDegraded, c.State())

	// 后端恢复，冷却期结束后探测成功回到 Healthy
	mr.SetError("")
	time.Sleep(80 * time.Millisecond)
	require.Equal(t, StateProbing, c.State())

	require.NoError(t, c.Ping(ctx))
	assert.Equal(t, StateHealthy, c.State())
}

func TestClient_Probing_FailureReopensBreaker(t *testing.T) {
	c, mr := newTestClient(t,
		WithFailureThreshold(2),
		WithCooldown(50*time.Millisecond),
		WithOpTimeout(time.Second),
	)
	ctx := context.Background()

	mr.SetError("backend down")
	_ = c.Ping(ctx)
	_ = c.Ping(ctx)
	require.Equal(t, StateDegraded, c.State())

	// 探测失败回到 Degraded 重新计时
	time.Sleep(80 * time.Millisecond)
	_ = c.Ping(ctx)
	assert.Equal(t, StateDegraded, c.State())
}

// =============================================================================
// 生命周期测试
// =============================================================================

func TestClient_Close_IsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	err := c.Ping(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}
