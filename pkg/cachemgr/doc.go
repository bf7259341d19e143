// Package cachemgr 提供双层缓存管理器：进程内存层加共享后端层。
//
// 写入同时落两层。读取共享后端优先，保证读到跨实例的最新写入，
// 命中后回填内存镜像；共享后端未命中或不可用时回退到内存层。
// 共享后端故障不会上抛给调用方：熔断器把后端折叠为
// Healthy/Degraded/Probing 三态，降级期间管理器自动回退到
// 仅内存模式，后端恢复后自动回升。
//
// 语义约定：
//
//   - 键缺失不是错误，读操作通过 found 布尔值区分
//   - 后端故障不是错误，体现为统计中的 Fallbacks 计数
//   - 损坏的条目视为缺失，并从两层中清除
//   - 唯一的致命错误类别是配置错误（ErrInvalidConfig）
//
// 超过压缩阈值的值透明压缩，读取时自动还原，调用方始终
// 看到原始字节。批量操作按 batch_size 分片执行。预热队列
// 有界，溢出时丢弃最旧的待处理条目。
//
// 基本用法：
//
//	cfg := cachemgr.DefaultConfig()
//	cfg.SharedStoreAddress = "127.0.0.1:6379"
//
//	mgr, err := cachemgr.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	_ = mgr.Set(ctx, "user:1", []byte(`{"name":"alice"}`))
//	val, found, _ := mgr.Get(ctx, "user:1")
package cachemgr
