// Package memtier 提供进程内缓存层：有界键值映射 + 可插拔淘汰策略。
//
// # 容量语义
//
// 容量以条目数计，不以字节数计。写入新键且已达容量上限时，
// 同步淘汰恰好一个受害者再插入，任何修改操作返回后条目数都不会超过容量。
// SizeBytes 仅作为内存占用的估算值暴露，不参与容量判定。
//
// # 淘汰策略
//
//   - LRU：最久未访问者先淘汰（基于 hashicorp/golang-lru 的底层 LRU 索引）
//   - LFU：访问次数最少者先淘汰，并列时取最早插入者
//   - FIFO：最早插入者先淘汰，访问不影响顺序
//   - RANDOM：均匀随机淘汰
//
// 策略可在运行时切换：SetStrategy 用现存条目的访问元数据重建新策略的视图，
// 不会回溯改写条目元数据本身。
//
// # TTL
//
// 过期在读取时惰性判定：Get 命中已过期条目时将其删除并报告缺失。
// 过期不计入淘汰计数，通过 WithOnExpire 回调单独上报。
//
// # 并发
//
// 所有方法并发安全。"检查容量 → 淘汰 → 插入"在单一互斥锁内完成，
// 并发写入不可能联合突破容量上限；访问元数据也只在持锁时修改，
// 保证策略内部的排序结构不被破坏。
package memtier
