package sharedtier

import "errors"

// 参数校验错误
var (
	// ErrEmptyAddr 后端地址为空
	ErrEmptyAddr = errors.New("sharedtier: address cannot be empty")

	// ErrInvalidPoolSize 连接池大小非法
	ErrInvalidPoolSize = errors.New("sharedtier: pool size must be positive")

	// ErrNilClient 传入的 redis 客户端为 nil
	ErrNilClient = errors.New("sharedtier: redis client cannot be nil")

	// ErrEmptyKey 键为空
	ErrEmptyKey = errors.New("sharedtier: key cannot be empty")
)

// 运行时错误
var (
	// ErrUnavailable 后端熔断中，操作未执行
	ErrUnavailable = errors.New("sharedtier: backend unavailable")

	// ErrClosed 客户端已关闭
	ErrClosed = errors.New("sharedtier: client closed")
)
