package memtier

import (
	"fmt"
	"strings"
)

// EvictionStrategy 标识淘汰策略。
type EvictionStrategy string

// 支持的淘汰策略。
const (
	// StrategyLRU 淘汰最久未访问的条目。
	StrategyLRU EvictionStrategy = "lru"

	// StrategyLFU 淘汰访问次数最少的条目，并列时取最早插入者。
	StrategyLFU EvictionStrategy = "lfu"

	// StrategyFIFO 淘汰最早插入的条目，访问不影响顺序。
	StrategyFIFO EvictionStrategy = "fifo"

	// StrategyRandom 均匀随机淘汰。
	StrategyRandom EvictionStrategy = "random"
)

// ParseStrategy 从字符串解析淘汰策略（大小写不敏感）。
// 无法识别时返回 ErrUnknownStrategy。
func ParseStrategy(s string) (EvictionStrategy, error) {
	switch EvictionStrategy(strings.ToLower(s)) {
	case StrategyLRU:
		return StrategyLRU, nil
	case StrategyLFU:
		return StrategyLFU, nil
	case StrategyFIFO:
		return StrategyFIFO, nil
	case StrategyRandom:
		return StrategyRandom, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// policy 是淘汰策略的内部接口。
// 所有方法都在 Store 的互斥锁内调用，实现无需自带同步。
// 策略只维护自己的排序视图，条目元数据（AccessedAt/AccessCount/Seq）
// 由 Store 负责更新。
type policy interface {
	// name 返回策略标识。
	name() EvictionStrategy

	// insert 登记新插入的条目。
	insert(e *Entry)

	// update 登记同键覆盖写入。LRU 视其为一次使用刷新新旧顺序，
	// 其余策略不受影响。
	update(e *Entry)

	// access 登记一次读取（条目元数据已更新完毕）。
	access(e *Entry)

	// remove 注销条目（删除、过期或被淘汰后调用）。
	remove(e *Entry)

	// victim 返回当前应被淘汰的键。
	// 视图为空时返回 ("", false)；Store 保证只在有条目时调用。
	victim() (string, bool)

	// reset 用现存条目重建视图。entries 已按 Seq 升序排列。
	reset(entries []*Entry)
}

// newPolicy 创建指定策略的视图。
func newPolicy(strategy EvictionStrategy, capacity int) (policy, error) {
	switch strategy {
	case StrategyLRU:
		return newLRUPolicy(capacity)
	case StrategyLFU:
		return newLFUPolicy(), nil
	case StrategyFIFO:
		return newFIFOPolicy(), nil
	case StrategyRandom:
		return newRandomPolicy(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
