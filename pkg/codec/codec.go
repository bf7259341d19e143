package codec

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// 载荷头部字节。
const (
	headerRaw  byte = 0x00 // 原始字节
	headerS2   byte = 0x01 // s2 块压缩
	headerSize      = 1
)

// Codec 按阈值对缓存值做透明压缩。
// 零值不可用，必须通过 New 创建。所有方法并发安全（无内部状态）。
type Codec struct {
	threshold int
}

// New 创建编解码器。
// threshold 为触发压缩的最小字节数（含）；0 表示对所有值尝试压缩。
// threshold 为负数时返回 ErrInvalidThreshold。
func New(threshold int) (*Codec, error) {
	if threshold < 0 {
		return nil, ErrInvalidThreshold
	}
	return &Codec{threshold: threshold}, nil
}

// Threshold 返回压缩阈值。
func (c *Codec) Threshold() int {
	return c.threshold
}

// Encode 编码缓存值，返回带头部的载荷及是否实际压缩。
//
//   - len(src) < threshold：不压缩，头部为 0x00
//   - 压缩结果不小于原始值：放弃压缩，头部为 0x00
//   - 其余情况：s2 压缩，头部为 0x01
func (c *Codec) Encode(src []byte) ([]byte, bool) {
	if len(src) >= c.threshold {
		compressed := s2.Encode(nil, src)
		if len(compressed) < len(src) {
			out := make([]byte, 0, headerSize+len(compressed))
			out = append(out, headerS2)
			out = append(out, compressed...)
			return out, true
		}
	}

	out := make([]byte, 0, headerSize+len(src))
	out = append(out, headerRaw)
	out = append(out, src...)
	return out, false
}

// Decode 解码载荷，精确还原 Encode 之前的原始字节。
// 载荷为空、头部非法或解压失败时返回 ErrCorrupt。
func (c *Codec) Decode(payload []byte) ([]byte, error) {
	if len(payload) < headerSize {
		return nil, fmt.Errorf("%w: empty payload", ErrCorrupt)
	}

	body := payload[headerSize:]
	switch payload[0] {
	case headerRaw:
		// 返回副本，避免调用方修改影响缓存内部存储
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	case headerS2:
		out, err := s2.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown header 0x%02x", ErrCorrupt, payload[0])
	}
}

// Compressed 报告载荷是否为压缩编码。
// 载荷非法时返回 false。
func Compressed(payload []byte) bool {
	return len(payload) >= headerSize && payload[0] == headerS2
}
