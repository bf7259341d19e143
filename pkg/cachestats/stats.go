package cachestats

import (
	"sync/atomic"
)

// =============================================================================
// 事件定义
// =============================================================================

// Event 表示一次可观测的缓存事件。
type Event string

// 缓存事件常量。Observer 以这些名称上报指标。
const (
	EventHit           Event = "hit"
	EventMiss          Event = "miss"
	EventSet           Event = "set"
	EventDelete        Event = "delete"
	EventEviction      Event = "eviction"
	EventExpiration    Event = "expiration"
	EventError         Event = "error"
	EventFallback      Event = "fallback"
	EventCompression   Event = "compression"
	EventDecompression Event = "decompression"
	EventWarmupDrop    Event = "warmup_drop"
)

// 命中层级标签值。
const (
	TierShared = "shared"
	TierMemory = "memory"
)

// Attr 表示事件的附加属性。
type Attr struct {
	Key   string
	Value string
}

// Observer 接收计数事件的观测接口。
// 实现必须是并发安全的，且不应阻塞：Add 在 get/set 热路径上同步调用。
type Observer interface {
	// Add 上报一次事件。
	Add(event Event, attrs ...Attr)
}

// =============================================================================
// Collector
// =============================================================================

// Collector 收集缓存运行指标。
// 零值不可用，必须通过 NewCollector 创建。
// 所有方法并发安全。
type Collector struct {
	hits           atomic.Uint64
	sharedHits     atomic.Uint64
	memoryHits     atomic.Uint64
	misses         atomic.Uint64
	sets           atomic.Uint64
	deletes        atomic.Uint64
	evictions      atomic.Uint64
	expirations    atomic.Uint64
	errors         atomic.Uint64
	fallbacks      atomic.Uint64
	compressions   atomic.Uint64
	decompressions atomic.Uint64
	warmupDrops    atomic.Uint64

	observer Observer
}

// CollectorOption 定义配置 Collector 的函数类型。
type CollectorOption func(*Collector)

// WithObserver 设置事件观测器。
// 传入 nil 表示不上报（默认行为）。
func WithObserver(o Observer) CollectorOption {
	return func(c *Collector) {
		c.observer = o
	}
}

// NewCollector 创建指标收集器。
func NewCollector(opts ...CollectorOption) *Collector {
	c := &Collector{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// observe 转发事件给 Observer（如果配置了）。
func (c *Collector) observe(event Event, attrs ...Attr) {
	if c.observer != nil {
		c.observer.Add(event, attrs...)
	}
}

// SharedHit 记录一次共享层命中。
func (c *Collector) SharedHit() {
	c.hits.Add(1)
	c.sharedHits.Add(1)
	c.observe(EventHit, Attr{Key: "tier", Value: TierShared})
}

// MemoryHit 记录一次内存层命中。
func (c *Collector) MemoryHit() {
	c.hits.Add(1)
	c.memoryHits.Add(1)
	c.observe(EventHit, Attr{Key: "tier", Value: TierMemory})
}

// Miss 记录一次未命中。
func (c *Collector) Miss() {
	c.misses.Add(1)
	c.observe(EventMiss)
}

// Set 记录一次写入。
func (c *Collector) Set() {
	c.sets.Add(1)
	c.observe(EventSet)
}

// Delete 记录一次删除。
func (c *Collector) Delete() {
	c.deletes.Add(1)
	c.observe(EventDelete)
}

// Eviction 记录一次容量淘汰。
// strategy 为淘汰发生时生效的策略名称。
func (c *Collector) Eviction(strategy string) {
	c.evictions.Add(1)
	c.observe(EventEviction, Attr{Key: "strategy", Value: strategy})
}

// Expiration 记录一次 TTL 过期。
func (c *Collector) Expiration() {
	c.expirations.Add(1)
	c.observe(EventExpiration)
}

// Error 记录一次后端错误。
func (c *Collector) Error() {
	c.errors.Add(1)
	c.observe(EventError)
}

// Fallback 记录一次降级到内存层。
func (c *Collector) Fallback() {
	c.fallbacks.Add(1)
	c.observe(EventFallback)
}

// Compression 记录一次压缩。
func (c *Collector) Compression() {
	c.compressions.Add(1)
	c.observe(EventCompression)
}

// Decompression 记录一次解压。
func (c *Collector) Decompression() {
	c.decompressions.Add(1)
	c.observe(EventDecompression)
}

// WarmupDrop 记录一次预热队列溢出丢弃。
func (c *Collector) WarmupDrop() {
	c.warmupDrops.Add(1)
	c.observe(EventWarmupDrop)
}

// =============================================================================
// 快照
// =============================================================================

// Snapshot 是 Collector 某一时刻的只读快照。
type Snapshot struct {
	Hits           uint64
	SharedHits     uint64
	MemoryHits     uint64
	Misses         uint64
	Sets           uint64
	Deletes        uint64
	Evictions      uint64
	Expirations    uint64
	Errors         uint64
	Fallbacks      uint64
	Compressions   uint64
	Decompressions uint64
	WarmupDrops    uint64

	// HitRate 为 Hits/(Hits+Misses)；无请求时为 0。
	HitRate float64
}

// Snapshot 返回当前计数的快照。
// 快照本身不保证跨计数器的严格原子性：并发递增期间各计数器独立读取，
// 但每个计数器的值都是某一时刻的真实值，误差不会累积。
func (c *Collector) Snapshot() Snapshot {
	s := Snapshot{
		Hits:           c.hits.Load(),
		SharedHits:     c.sharedHits.Load(),
		MemoryHits:     c.memoryHits.Load(),
		Misses:         c.misses.Load(),
		Sets:           c.sets.Load(),
		Deletes:        c.deletes.Load(),
		Evictions:      c.evictions.Load(),
		Expirations:    c.expirations.Load(),
		Errors:         c.errors.Load(),
		Fallbacks:      c.fallbacks.Load(),
		Compressions:   c.compressions.Load(),
		Decompressions: c.decompressions.Load(),
		WarmupDrops:    c.warmupDrops.Load(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
