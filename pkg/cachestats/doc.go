// Package cachestats 提供缓存运行指标的收集与快照。
//
// # 设计理念
//
// Collector 是显式持有的计数器对象，由每个缓存管理器实例独立拥有，
// 不使用包级单例。多个实例（如测试中的并行实例）互不干扰。
//
// 所有计数器使用 atomic 递增，热路径上无锁、无分配；
// Snapshot 返回某一时刻的一致性快照，不会修改内部状态。
//
// # 计数器语义
//
//   - Hits/Misses/Sets/Deletes：基础操作计数，Hits 同时按命中层级细分
//     （SharedHits 为共享层命中，MemoryHits 为内存层命中）
//   - Evictions：容量淘汰次数，按淘汰时生效的策略归属
//   - Expirations：TTL 惰性过期次数
//   - Errors：后端错误（已在内部降级处理，不会上抛给调用方）
//   - Fallbacks：共享层不可用、降级到内存层的次数
//   - Compressions/Decompressions：压缩编解码次数
//   - WarmupDrops：预热队列溢出时被丢弃的请求数
//
// # 可观测性
//
// 通过 WithObserver 注入 Observer 后，每次计数会同步转发一份事件。
// 内置 OTelObserver 将事件映射为 OpenTelemetry 计数器。
// Observer 为 nil 时无任何额外开销。
package cachestats
