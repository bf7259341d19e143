package memtier

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, capacity int, strategy EvictionStrategy, opts ...Option) *Store {
	t.Helper()
	s, err := New(capacity, strategy, opts...)
	require.NoError(t, err)
	return s
}

// =============================================================================
// 构造校验
// =============================================================================

func TestNew_WithInvalidCapacity_ReturnsError(t *testing.T) {
	_, err := New(0, StrategyLRU)
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = New(-1, StrategyLRU)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestNew_WithExcessiveCapacity_ReturnsError(t *testing.T) {
	_, err := New(maxCapacity+1, StrategyLRU)
	assert.ErrorIs(t, err, ErrCapacityExceedsMax)
}

func TestNew_WithUnknownStrategy_ReturnsError(t *testing.T) {
	_, err := New(10, EvictionStrategy("clock"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestParseStrategy(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want EvictionStrategy
	}{
		{"lru", StrategyLRU},
		{"LRU", StrategyLRU},
		{"Lfu", StrategyLFU},
		{"fifo", StrategyFIFO},
		{"RANDOM", StrategyRandom},
	} {
		got, err := ParseStrategy(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseStrategy("mru")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

// =============================================================================
// 基础读写
// =============================================================================

func TestStore_PutGet_RoundTrip(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)

	s.Put(Entry{Key: "k", Value: []byte("v"), Metadata: map[string]string{"src": "test"}})

	e, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), e.Value)
	assert.Equal(t, map[string]string{"src": "test"}, e.Metadata)
	assert.Equal(t, 1, e.Size)
	assert.Equal(t, uint64(1), e.AccessCount)
}

func TestStore_Get_MissingKey(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStore_Put_OverwriteKeepsSeqAndCount(t *testing.T) {
	s := newTestStore(t, 4, StrategyFIFO)

	s.Put(Entry{Key: "k", Value: []byte("v1")})
	s.Get("k")
	s.Get("k")
	s.Put(Entry{Key: "k", Value: []byte("v2-longer")})

	e, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v2-longer"), e.Value)
	assert.Equal(t, uint64(1), e.Seq)
	assert.Equal(t, uint64(3), e.AccessCount)
	assert.Equal(t, 1, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)

	s.Put(Entry{Key: "k", Value: []byte("v")})
	assert.True(t, s.Delete("k"))
	assert.False(t, s.Delete("k"))

	_, ok := s.Get("k")
	assert.False(t, ok)
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	s.Clear()

	assert.Zero(t, s.Len())
	assert.Zero(t, s.SizeBytes())

	// 清空后可继续写入
	s.Put(Entry{Key: "c", Value: []byte("3")})
	assert.Equal(t, 1, s.Len())
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)
	s.Put(Entry{Key: "k", Value: []byte("abc"), Metadata: map[string]string{"a": "b"}})

	e, ok := s.Get("k")
	require.True(t, ok)
	e.Value[0] = 'X'
	e.Metadata["a"] = "mutated"

	again, ok := s.Get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), again.Value)
	assert.Equal(t, "b", again.Metadata["a"])
}

func TestStore_SizeBytes_TracksPayload(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)

	s.Put(Entry{Key: "a", Value: make([]byte, 10)})
	s.Put(Entry{Key: "b", Value: make([]byte, 20)})
	assert.Equal(t, int64(30), s.SizeBytes())

	s.Put(Entry{Key: "a", Value: make([]byte, 5)})
	assert.Equal(t, int64(25), s.SizeBytes())

	s.Delete("b")
	assert.Equal(t, int64(5), s.SizeBytes())
}

// =============================================================================
// TTL
// =============================================================================

func TestStore_Get_ExpiredEntry_IsAbsentAndRemoved(t *testing.T) {
	var expired []string
	s := newTestStore(t, 4, StrategyLRU, WithOnExpire(func(key string) {
		expired = append(expired, key)
	}))

	s.Put(Entry{Key: "k", Value: []byte("v"), ExpiresAt: time.Now().Add(20 * time.Millisecond)})

	_, ok := s.Get("k")
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = s.Get("k")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
	assert.Equal(t, []string{"k"}, expired)
}

func TestStore_ZeroExpiry_NeverExpires(t *testing.T) {
	s := newTestStore(t, 4, StrategyLRU)
	s.Put(Entry{Key: "k", Value: []byte("v")})

	time.Sleep(10 * time.Millisecond)
	_, ok := s.Get("k")
	assert.True(t, ok)
}

// =============================================================================
// 淘汰策略
// =============================================================================

func TestStore_LRU_EvictsLeastRecentlyAccessed(t *testing.T) {
	var evicted []string
	s := newTestStore(t, 3, StrategyLRU, WithOnEvict(func(key string, _ EvictionStrategy) {
		evicted = append(evicted, key)
	}))

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	s.Put(Entry{Key: "c", Value: []byte("3")})

	// 访问 a 和 b，c 成为最旧
	s.Get("a")
	s.Get("b")

	s.Put(Entry{Key: "d", Value: []byte("4")})

	assert.Equal(t, []string{"c"}, evicted)
	_, ok := s.Get("c")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())
}

func TestStore_LRU_NoReads_EvictsFirstInserted(t *testing.T) {
	const capacity = 3
	s := newTestStore(t, capacity, StrategyLRU)

	// 无读取时插入 N+1 个键：首个插入者被淘汰
	for i := 0; i <= capacity; i++ {
		s.Put(Entry{Key: fmt.Sprintf("k%d", i), Value: []byte("v")})
	}

	_, ok := s.Get("k0")
	assert.False(t, ok)
	assert.Equal(t, capacity, s.Len())
}

func TestStore_LFU_ProtectsFrequentlyAccessed(t *testing.T) {
	s := newTestStore(t, 2, StrategyLFU)

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})

	// a 访问多次，b 不访问
	s.Get("a")
	s.Get("a")
	s.Get("a")

	s.Put(Entry{Key: "c", Value: []byte("3")})

	_, okA := s.Get("a")
	_, okB := s.Get("b")
	assert.True(t, okA, "高频访问的 a 不应被淘汰")
	assert.False(t, okB)
}

func TestStore_LFU_TieBrokenByOldestInsertion(t *testing.T) {
	var evicted []string
	s := newTestStore(t, 2, StrategyLFU, WithOnEvict(func(key string, _ EvictionStrategy) {
		evicted = append(evicted, key)
	}))

	// a、b 访问次数相同（均为 0），a 更早插入
	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	s.Put(Entry{Key: "c", Value: []byte("3")})

	assert.Equal(t, []string{"a"}, evicted)
}

func TestStore_FIFO_Scenario(t *testing.T) {
	s := newTestStore(t, 2, StrategyFIFO)

	s.Put(Entry{Key: "A", Value: []byte("1")})
	s.Put(Entry{Key: "B", Value: []byte("2")})
	s.Put(Entry{Key: "C", Value: []byte("3")})

	_, okA := s.Get("A")
	eB, okB := s.Get("B")
	eC, okC := s.Get("C")

	assert.False(t, okA)
	require.True(t, okB)
	assert.Equal(t, []byte("2"), eB.Value)
	require.True(t, okC)
	assert.Equal(t, []byte("3"), eC.Value)
}

func TestStore_FIFO_AccessDoesNotAffectOrder(t *testing.T) {
	s := newTestStore(t, 2, StrategyFIFO)

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})

	// 疯狂访问 a 也救不了它
	for i := 0; i < 10; i++ {
		s.Get("a")
	}
	s.Put(Entry{Key: "c", Value: []byte("3")})

	_, ok := s.Get("a")
	assert.False(t, ok)
}

func TestStore_Random_EvictsExactlyOne(t *testing.T) {
	var evicted []string
	s := newTestStore(t, 3, StrategyRandom, WithOnEvict(func(key string, strategy EvictionStrategy) {
		evicted = append(evicted, key)
		assert.Equal(t, StrategyRandom, strategy)
	}))

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	s.Put(Entry{Key: "c", Value: []byte("3")})
	s.Put(Entry{Key: "d", Value: []byte("4")})

	require.Len(t, evicted, 1)
	assert.Contains(t, []string{"a", "b", "c"}, evicted[0])
	assert.Equal(t, 3, s.Len())
}

func TestStore_CapacityInvariant_UnderChurn(t *testing.T) {
	for _, strategy := range []EvictionStrategy{StrategyLRU, StrategyLFU, StrategyFIFO, StrategyRandom} {
		t.Run(string(strategy), func(t *testing.T) {
			const capacity = 8
			s := newTestStore(t, capacity, strategy)

			for i := 0; i < 100; i++ {
				s.Put(Entry{Key: fmt.Sprintf("k%d", i), Value: []byte("v")})
				if i%3 == 0 {
					s.Get(fmt.Sprintf("k%d", i/2))
				}
				assert.LessOrEqual(t, s.Len(), capacity)
			}
			assert.Equal(t, capacity, s.Len())
		})
	}
}

func TestStore_EvictionAttributedToActiveStrategy(t *testing.T) {
	var strategies []EvictionStrategy
	s := newTestStore(t, 2, StrategyLRU, WithOnEvict(func(_ string, strategy EvictionStrategy) {
		strategies = append(strategies, strategy)
	}))

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	s.Put(Entry{Key: "c", Value: []byte("3")})

	require.NoError(t, s.SetStrategy(StrategyFIFO))
	s.Put(Entry{Key: "d", Value: []byte("4")})

	assert.Equal(t, []EvictionStrategy{StrategyLRU, StrategyFIFO}, strategies)
}

// =============================================================================
// 运行时策略切换
// =============================================================================

func TestStore_SetStrategy_PreservesAccessMetadata(t *testing.T) {
	s := newTestStore(t, 2, StrategyFIFO)

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	// FIFO 下访问无意义，但元数据仍被记录
	s.Get("a")
	s.Get("a")

	// 切换到 LFU：a 的历史访问计数使 b 成为受害者
	require.NoError(t, s.SetStrategy(StrategyLFU))
	s.Put(Entry{Key: "c", Value: []byte("3")})

	_, okA := s.Get("a")
	_, okB := s.Get("b")
	assert.True(t, okA)
	assert.False(t, okB)
}

func TestStore_SetStrategy_SameStrategy_IsNoop(t *testing.T) {
	s := newTestStore(t, 2, StrategyLRU)
	require.NoError(t, s.SetStrategy(StrategyLRU))
	assert.Equal(t, StrategyLRU, s.Strategy())
}

func TestStore_SetStrategy_Unknown_ReturnsError(t *testing.T) {
	s := newTestStore(t, 2, StrategyLRU)
	err := s.SetStrategy(EvictionStrategy("arc"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, StrategyLRU, s.Strategy())
}

func TestStore_SetStrategy_FIFOOrderSurvivesSwap(t *testing.T) {
	s := newTestStore(t, 3, StrategyLRU)

	s.Put(Entry{Key: "a", Value: []byte("1")})
	s.Put(Entry{Key: "b", Value: []byte("2")})
	s.Put(Entry{Key: "c", Value: []byte("3")})
	// LRU 下把 a 变成最新
	s.Get("a")

	// 切到 FIFO：顺序由插入序号决定，a 仍是最早插入者
	require.NoError(t, s.SetStrategy(StrategyFIFO))
	s.Put(Entry{Key: "d", Value: []byte("4")})

	_, ok := s.Get("a")
	assert.False(t, ok)
}

// =============================================================================
// 并发
// =============================================================================

func TestStore_ConcurrentPutGet_CapacityHolds(t *testing.T) {
	const capacity = 16
	s := newTestStore(t, capacity, StrategyLRU)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-k%d", g, i%32)
				s.Put(Entry{Key: key, Value: []byte("v")})
				s.Get(key)
				if i%7 == 0 {
					s.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), capacity)
}

func TestStore_ConcurrentStrategySwap(t *testing.T) {
	s := newTestStore(t, 8, StrategyLRU)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.Put(Entry{Key: fmt.Sprintf("k%d", i%16), Value: []byte("v")})
			s.Get(fmt.Sprintf("k%d", i%16))
		}
	}()
	go func() {
		defer wg.Done()
		for _, strategy := range []EvictionStrategy{StrategyLFU, StrategyFIFO, StrategyRandom, StrategyLRU} {
			_ = s.SetStrategy(strategy)
		}
	}()
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), 8)
}
