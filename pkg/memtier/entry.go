package memtier

import (
	"maps"
	"time"
)

// Entry 是内存层的缓存条目。
// 条目归持有它的缓存层独占所有：写入和读取都传递深拷贝，
// 跨层流动永远是复制，不共享引用。
type Entry struct {
	// Key 缓存键。
	Key string

	// Value 编码后的载荷（可能已压缩，见 codec 包的头部约定）。
	Value []byte

	// Compressed 标记载荷是否压缩存储。仅用于统计与调试。
	Compressed bool

	// Metadata 任意业务标签。
	Metadata map[string]string

	// Size 载荷字节数，写入时由 Store 计算。
	Size int

	// ExpiresAt 绝对过期时刻，零值表示永不过期。
	ExpiresAt time.Time

	// CreatedAt 首次插入时刻，set 覆盖同键时保持不变。
	CreatedAt time.Time

	// AccessedAt 最近一次读取时刻。
	AccessedAt time.Time

	// AccessCount 读取次数。
	AccessCount uint64

	// Seq 插入序号，首次插入时由 Store 分配并在覆盖写入时保持不变。
	// FIFO 排序与 LFU 并列裁决都以此为准。
	Seq uint64
}

// expired 判断条目在 now 时刻是否已过期。
func (e *Entry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// clone 返回条目的深拷贝。
func (e *Entry) clone() Entry {
	out := *e
	if e.Value != nil {
		out.Value = make([]byte, len(e.Value))
		copy(out.Value, e.Value)
	}
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	return out
}
