package memtier

import (
	"bytes"
	"maps"
	"sort"
	"sync"
	"time"
)

// maxCapacity 容量上限。
const maxCapacity = 1 << 24 // 16,777,216

// Option 定义配置 Store 的函数类型。
type Option func(*Store)

// WithOnEvict 设置容量淘汰回调。
// 回调在 Store 的互斥锁内同步执行：严禁在回调中调用 Store 自身的任何方法
// （否则死锁），且应避免耗时操作。strategy 为淘汰发生时生效的策略。
func WithOnEvict(fn func(key string, strategy EvictionStrategy)) Option {
	return func(s *Store) {
		s.onEvict = fn
	}
}

// WithOnExpire 设置 TTL 过期回调。约束与 WithOnEvict 相同。
func WithOnExpire(fn func(key string)) Option {
	return func(s *Store) {
		s.onExpire = fn
	}
}

// Store 是有界的进程内缓存层。
// 必须通过 New 创建，零值不可用。所有方法并发安全。
type Store struct {
	mu       sync.Mutex
	entries  map[string]*Entry
	capacity int
	pol      policy
	seq      uint64
	bytes    int64

	onEvict  func(key string, strategy EvictionStrategy)
	onExpire func(key string)
}

// New 创建内存层。
// capacity 为条目数上限；capacity <= 0 返回 ErrInvalidCapacity，
// 超过 16,777,216 返回 ErrCapacityExceedsMax。
func New(capacity int, strategy EvictionStrategy, opts ...Option) (*Store, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if capacity > maxCapacity {
		return nil, ErrCapacityExceedsMax
	}

	pol, err := newPolicy(strategy, capacity)
	if err != nil {
		return nil, err
	}

	s := &Store{
		entries:  make(map[string]*Entry, capacity),
		capacity: capacity,
		pol:      pol,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Put 写入条目。调用方填充 Key/Value/Compressed/Metadata/ExpiresAt，
// 其余字段（Size/CreatedAt/AccessedAt/AccessCount/Seq）由 Store 管理。
//
// 同键覆盖只替换值、TTL 与元数据，保留插入序号与访问计数；
// 新键写入且已满时先同步淘汰一个受害者，保证条目数不超过容量。
func (s *Store) Put(e Entry) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[e.Key]; ok {
		s.bytes += int64(len(e.Value)) - int64(existing.Size)
		existing.Value = cloneBytes(e.Value)
		existing.Compressed = e.Compressed
		existing.Metadata = cloneMetadata(e.Metadata)
		existing.Size = len(e.Value)
		existing.ExpiresAt = e.ExpiresAt
		s.pol.update(existing)
		return
	}

	if len(s.entries) >= s.capacity {
		s.evictOneLocked()
	}

	s.seq++
	stored := &Entry{
		Key:        e.Key,
		Value:      cloneBytes(e.Value),
		Compressed: e.Compressed,
		Metadata:   cloneMetadata(e.Metadata),
		Size:       len(e.Value),
		ExpiresAt:  e.ExpiresAt,
		CreatedAt:  now,
		AccessedAt: now,
		Seq:        s.seq,
	}
	s.entries[e.Key] = stored
	s.bytes += int64(stored.Size)
	s.pol.insert(stored)
}

// Get 读取条目，返回深拷贝。
// 命中会更新访问元数据；已过期的条目被删除并报告缺失。
func (s *Store) Get(key string) (Entry, bool) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	if e.expired(now) {
		s.removeLocked(e)
		if s.onExpire != nil {
			s.onExpire(key)
		}
		return Entry{}, false
	}

	e.AccessedAt = now
	e.AccessCount++
	s.pol.access(e)
	return e.clone(), true
}

// Delete 删除条目。键不存在时返回 false。
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.removeLocked(e)
	return true
}

// Clear 清空所有条目。不触发淘汰回调。
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*Entry, s.capacity)
	s.bytes = 0
	s.pol.reset(nil)
}

// Len 返回当前条目数。
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SizeBytes 返回当前载荷字节数估算。
func (s *Store) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}

// Capacity 返回容量上限（条目数）。
func (s *Store) Capacity() int {
	return s.capacity
}

// Strategy 返回当前生效的淘汰策略。
func (s *Store) Strategy() EvictionStrategy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pol.name()
}

// SetStrategy 运行时切换淘汰策略。
// 新策略用现存条目的访问元数据重建视图；条目元数据本身不被改写，
// 此前的访问历史在新策略下继续生效。
func (s *Store) SetStrategy(strategy EvictionStrategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pol.name() == strategy {
		return nil
	}
	pol, err := newPolicy(strategy, s.capacity)
	if err != nil {
		return err
	}
	pol.reset(s.entriesBySeqLocked())
	s.pol = pol
	return nil
}

// Keys 返回当前所有键（顺序不定）。
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}

// evictOneLocked 淘汰一个受害者。调用方必须持锁且保证条目非空。
func (s *Store) evictOneLocked() {
	key, ok := s.pol.victim()
	if !ok {
		return
	}
	e, ok := s.entries[key]
	if !ok {
		return
	}
	s.removeLocked(e)
	if s.onEvict != nil {
		s.onEvict(key, s.pol.name())
	}
}

// removeLocked 从映射与策略视图中移除条目。调用方必须持锁。
func (s *Store) removeLocked(e *Entry) {
	s.pol.remove(e)
	delete(s.entries, e.Key)
	s.bytes -= int64(e.Size)
}

// entriesBySeqLocked 返回按插入序号升序排列的条目。调用方必须持锁。
func (s *Store) entriesBySeqLocked() []*Entry {
	out := make([]*Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func cloneBytes(b []byte) []byte {
	return bytes.Clone(b)
}

func cloneMetadata(m map[string]string) map[string]string {
	return maps.Clone(m)
}
