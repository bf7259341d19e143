// Package sharedtier 封装共享缓存后端（Redis 协议）的访问客户端。
//
// 客户端内置熔断器，把后端的健康状况折叠为三个状态：
//
//   - StateHealthy：正常访问后端
//   - StateDegraded：连续失败达到阈值后熔断，冷却期内所有操作
//     立即返回 ErrUnavailable，不触碰网络
//   - StateProbing：冷却期结束后放行单个探测请求，成功则恢复
//     Healthy，失败则回到 Degraded 重新计时
//
// 所有操作都带独立超时，键缺失不是错误（Get 通过 found 布尔值区分）。
// 批量操作使用 pipeline 往返一次。
//
// 状态迁移由 sony/gobreaker 驱动，调用方只需处理 ErrUnavailable
// 并回退到本地缓存。
package sharedtier
