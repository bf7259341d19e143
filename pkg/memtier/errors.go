package memtier

import "errors"

var (
	// ErrInvalidCapacity 表示容量不是正数。
	ErrInvalidCapacity = errors.New("memtier: capacity must be positive")

	// ErrCapacityExceedsMax 表示容量超过上限 (16,777,216)。
	ErrCapacityExceedsMax = errors.New("memtier: capacity exceeds maximum")

	// ErrUnknownStrategy 表示淘汰策略名称无法识别。
	ErrUnknownStrategy = errors.New("memtier: unknown eviction strategy")
)
