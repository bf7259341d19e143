package cachemgr

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/omeyang/cachekit/pkg/cachestats"
	"github.com/omeyang/cachekit/pkg/codec"
	"github.com/omeyang/cachekit/pkg/memtier"
	"github.com/omeyang/cachekit/pkg/sharedtier"
)

// Manager 双层缓存管理器。
//
// 所有方法并发安全。Close 之后的调用返回 ErrClosed。
type Manager struct {
	cfg    Config
	mem    *memtier.Store
	shared *sharedtier.Client // nil 表示仅内存模式
	codec  *codec.Codec
	stats  *cachestats.Collector
	logger *slog.Logger
	warm   *warmupQueue // nil 表示预热禁用

	// ownsShared 为 true 时 Close 负责关闭共享客户端
	ownsShared bool
	closed     atomic.Bool
}

// New 创建缓存管理器。
//
// 配置非法时返回 ErrInvalidConfig，这是唯一会阻止构造的错误：
// 共享后端不可达不影响构造，管理器会以降级方式启动。
func New(cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &managerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	var statsOpts []cachestats.CollectorOption
	if cfg.MonitoringEnabled && o.observer != nil {
		statsOpts = append(statsOpts, cachestats.WithObserver(o.observer))
	}

	m := &Manager{
		cfg:    cfg,
		stats:  cachestats.NewCollector(statsOpts...),
		logger: o.logger,
	}

	strategy, err := memtier.ParseStrategy(cfg.EvictionStrategy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	m.mem, err = memtier.New(cfg.MaxMemorySize, strategy,
		memtier.WithOnEvict(func(_ string, s memtier.EvictionStrategy) {
			m.stats.Eviction(string(s))
		}),
		memtier.WithOnExpire(func(_ string) {
			m.stats.Expiration()
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	m.codec, err = codec.New(cfg.CompressionThreshold)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	switch {
	case o.shared != nil:
		m.shared = o.shared
	case cfg.SharedStoreAddress != "":
		m.shared, err = sharedtier.New(cfg.SharedStoreAddress,
			sharedtier.WithPoolSize(cfg.ConnectionPoolSize),
			sharedtier.WithLogger(o.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		m.ownsShared = true
	}

	if cfg.WarmupEnabled {
		m.warm = newWarmupQueue(m, cfg.WarmupQueueSize)
	}

	return m, nil
}

// prefixed 返回共享后端使用的带前缀键名。
func (m *Manager) prefixed(key string) string {
	return m.cfg.KeyPrefix + key
}

// resolveTTL 解析本次写入的 TTL。未显式指定时使用 DefaultTTL。
func (m *Manager) resolveTTL(o *itemOptions) time.Duration {
	if o.hasTTL {
		return o.ttl
	}
	return m.cfg.DefaultTTL
}

// fallback 记录一次共享后端失败。失败不上抛，只计数并记录日志。
func (m *Manager) fallback(op, key string, err error) {
	m.stats.Fallback()
	m.logger.Debug("cachemgr: shared tier unavailable, serving from memory",
		slog.String("op", op), slog.String("key", key), slog.Any("error", err))
}

// =============================================================================
// 单键操作
// =============================================================================

// Set 写入键值。值超过压缩阈值时透明压缩。
//
// 写入同时落内存层和共享层，共享层失败不上抛（记为 fallback），
// 内存层写入成功即视为成功。
func (m *Manager) Set(ctx context.Context, key string, value []byte, opts ...ItemOption) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}

	o := &itemOptions{}
	for _, opt := range opts {
		opt(o)
	}
	m.store(ctx, key, value, o)
	return nil
}

// store 执行双层写入。Set、批量写入与预热队列共用此路径。
func (m *Manager) store(ctx context.Context, key string, value []byte, o *itemOptions) {
	payload := m.encodeAndStoreLocal(key, value, o)

	if m.shared != nil {
		if err := m.shared.Set(ctx, m.prefixed(key), payload, m.resolveTTL(o)); err != nil {
			m.fallback("set", key, err)
		}
	}
}

// newMemEntry 构造内存层条目，ttl > 0 时换算为绝对过期时刻。
func newMemEntry(key string, payload []byte, compressed bool, ttl time.Duration) memtier.Entry {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	return memtier.Entry{
		Key:        key,
		Value:      payload,
		Compressed: compressed,
		ExpiresAt:  expiresAt,
	}
}

// Get 读取键值。共享层优先，保证读到跨实例的最新写入；
// 共享层未命中或不可用时回退到内存层。
//
// 键缺失返回 (nil, false, nil)。共享层故障视为未命中（回退），
// 损坏的条目视为缺失并从两层清除。
func (m *Manager) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.closed.Load() {
		return nil, false, ErrClosed
	}
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	if m.shared != nil {
		payload, found, err := m.shared.Get(ctx, m.prefixed(key))
		switch {
		case err != nil:
			m.fallback("get", key, err)
		case found:
			val, derr := m.codec.Decode(payload)
			if derr != nil {
				// 共享层条目损坏：从两层驱逐并视为缺失
				m.evictCorrupt(ctx, key)
				m.stats.Miss()
				return nil, false, nil
			}
			m.stats.SharedHit()
			if codec.Compressed(payload) {
				m.stats.Decompression()
			}
			m.repopulate(key, payload)
			return val, true, nil
		}
	}

	if e, ok := m.mem.Get(key); ok {
		val, err := m.codec.Decode(e.Value)
		if err == nil {
			m.stats.MemoryHit()
			if e.Compressed {
				m.stats.Decompression()
			}
			return val, true, nil
		}
		m.stats.Error()
		m.mem.Delete(key)
	}

	m.stats.Miss()
	return nil, false, nil
}

// evictCorrupt 从两层清除损坏条目。内存镜像大概率持有同一份载荷。
func (m *Manager) evictCorrupt(ctx context.Context, key string) {
	m.stats.Error()
	m.mem.Delete(key)
	if m.shared != nil {
		if err := m.shared.Del(ctx, m.prefixed(key)); err != nil {
			m.fallback("evict", key, err)
		}
	}
}

// repopulate 把共享层命中的载荷回填到内存层，使用默认 TTL。
func (m *Manager) repopulate(key string, payload []byte) {
	m.mem.Put(newMemEntry(key, payload, codec.Compressed(payload), m.cfg.DefaultTTL))
}

// Delete 从两层删除键。键不存在不是错误，共享层失败不上抛。
func (m *Manager) Delete(ctx context.Context, key string) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}

	m.mem.Delete(key)
	m.stats.Delete()

	if m.shared != nil {
		if err := m.shared.Del(ctx, m.prefixed(key)); err != nil {
			m.fallback("delete", key, err)
		}
	}
	return nil
}

// Clear 清空两层缓存。统计计数器保留，不随清空归零。
//
// 共享层按键前缀渐进删除，只影响本管理器命名空间内的键。
func (m *Manager) Clear(ctx context.Context) error {
	if m.closed.Load() {
		return ErrClosed
	}

	m.mem.Clear()

	if m.shared != nil {
		if _, err := m.shared.DeleteByPrefix(ctx, m.cfg.KeyPrefix); err != nil {
			m.fallback("clear", "", err)
		}
	}
	return nil
}

// =============================================================================
// 观测与运维
// =============================================================================

// Stats 统计快照加内存层实时规模。
type Stats struct {
	cachestats.Snapshot

	// ItemCount 内存层当前条目数
	ItemCount int
	// MemoryBytes 内存层载荷字节数估算
	MemoryBytes int64
}

// Stats 返回统计快照。MonitoringEnabled 为 false 时返回零值。
func (m *Manager) Stats() Stats {
	if !m.cfg.MonitoringEnabled {
		return Stats{}
	}
	return Stats{
		Snapshot:    m.stats.Snapshot(),
		ItemCount:   m.mem.Len(),
		MemoryBytes: m.mem.SizeBytes(),
	}
}

// BackendState 返回共享后端的健康状态。
// 仅内存模式下恒为 StateHealthy。
func (m *Manager) BackendState() sharedtier.State {
	if m.shared == nil {
		return sharedtier.StateHealthy
	}
	return m.shared.State()
}

// MemoryLen 返回内存层当前条目数。
func (m *Manager) MemoryLen() int {
	return m.mem.Len()
}

// SetEvictionStrategy 运行时切换内存层淘汰策略。
// 已有条目保留，其访问历史带入新策略。
func (m *Manager) SetEvictionStrategy(name string) error {
	strategy, err := memtier.ParseStrategy(name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return m.mem.SetStrategy(strategy)
}

// Close 关闭管理器。幂等。
//
// 先排空预热队列再关闭共享连接，保证已入队的预热条目不丢失。
// 通过 WithSharedClient 注入的客户端不会被关闭。
func (m *Manager) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}

	if m.warm != nil {
		m.warm.close()
	}
	if m.shared != nil && m.ownsShared {
		return m.shared.Close()
	}
	return nil
}
