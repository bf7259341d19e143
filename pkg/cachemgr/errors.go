package cachemgr

import "errors"

var (
	// ErrInvalidConfig 配置非法。这是唯一的致命错误类别，
	// 具体原因通过 errors.Is/As 链上的包装信息暴露。
	ErrInvalidConfig = errors.New("cachemgr: invalid config")

	// ErrUnsupportedFormat 不支持的配置格式
	ErrUnsupportedFormat = errors.New("cachemgr: unsupported config format")

	// ErrEmptyKey 键为空
	ErrEmptyKey = errors.New("cachemgr: key cannot be empty")

	// ErrClosed 管理器已关闭
	ErrClosed = errors.New("cachemgr: manager closed")
)
