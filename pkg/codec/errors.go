package codec

import "errors"

var (
	// ErrCorrupt 表示载荷头部非法或压缩数据无法解压。
	// 调用方应将对应条目视为缺失并从缓存中淘汰，而非向上层暴露错误。
	ErrCorrupt = errors.New("codec: corrupt payload")

	// ErrInvalidThreshold 表示压缩阈值为负数。
	ErrInvalidThreshold = errors.New("codec: threshold must be non-negative")
)
