package cachemgr

import (
	"log/slog"
	"time"

	"github.com/omeyang/cachekit/pkg/cachestats"
	"github.com/omeyang/cachekit/pkg/sharedtier"
)

// =============================================================================
// 管理器选项
// =============================================================================

// managerOptions 管理器的注入点。
type managerOptions struct {
	logger   *slog.Logger
	observer cachestats.Observer
	shared   *sharedtier.Client
}

// Option 管理器配置选项。
type Option func(*managerOptions)

// WithLogger 设置日志记录器。
//
// 默认使用 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(o *managerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithObserver 附加统计观察者，事件在计数的同时转发给它。
// 仅在 MonitoringEnabled 为 true 时生效。
func WithObserver(obs cachestats.Observer) Option {
	return func(o *managerOptions) {
		o.observer = obs
	}
}

// WithSharedClient 注入已构造的共享后端客户端，
// 覆盖 SharedStoreAddress。客户端生命周期由调用方管理，
// 管理器 Close 不会关闭它。主要用于测试和连接复用。
func WithSharedClient(c *sharedtier.Client) Option {
	return func(o *managerOptions) {
		o.shared = c
	}
}

// =============================================================================
// 写入选项
// =============================================================================

// itemOptions 单次写入的可选参数。
type itemOptions struct {
	ttl      time.Duration
	hasTTL   bool
	metadata map[string]string
}

// ItemOption 写入操作的可选参数。
type ItemOption func(*itemOptions)

// WithTTL 覆盖本次写入的存活时间。
// 0 表示永不过期，未设置时使用 DefaultTTL。
func WithTTL(d time.Duration) ItemOption {
	return func(o *itemOptions) {
		o.ttl = d
		o.hasTTL = true
	}
}

// WithMetadata 附加条目元数据，随条目存储在内存层。
func WithMetadata(md map[string]string) ItemOption {
	return func(o *itemOptions) {
		o.metadata = md
	}
}
