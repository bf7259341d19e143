package sharedtier

import (
	"log/slog"
	"time"
)

const (
	defaultPoolSize         = 10
	defaultOpTimeout        = 3 * time.Second
	defaultCooldown         = 30 * time.Second
	defaultFailureThreshold = 3
	defaultPingAttempts     = 3
)

// options 客户端配置。
type options struct {
	poolSize         int
	opTimeout        time.Duration
	cooldown         time.Duration
	failureThreshold uint32
	pingAttempts     uint
	logger           *slog.Logger
}

// defaultOptions 返回默认配置。
func defaultOptions() *options {
	return &options{
		poolSize:         defaultPoolSize,
		opTimeout:        defaultOpTimeout,
		cooldown:         defaultCooldown,
		failureThreshold: defaultFailureThreshold,
		pingAttempts:     defaultPingAttempts,
		logger:           slog.Default(),
	}
}

// Option 客户端配置选项。
type Option func(*options)

// WithPoolSize 设置底层连接池大小。
//
// 非法值在 New 中校验并返回 ErrInvalidPoolSize。
// 默认值：10
func WithPoolSize(n int) Option {
	return func(o *options) {
		o.poolSize = n
	}
}

// WithOpTimeout 设置单次后端操作的超时时间。
//
// 每个操作都在此超时内完成，防止后端挂起时调用方永久阻塞。
// 默认值：3 秒
func WithOpTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.opTimeout = d
		}
	}
}

// WithCooldown 设置熔断后的冷却时间。
//
// 冷却期内操作立即失败，冷却结束后进入 Probing 状态放行探测请求。
// 默认值：30 秒
func WithCooldown(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cooldown = d
		}
	}
}

// WithFailureThreshold 设置触发熔断的连续失败次数。
//
// 默认值：3
func WithFailureThreshold(n uint32) Option {
	return func(o *options) {
		if n > 0 {
			o.failureThreshold = n
		}
	}
}

// WithPingAttempts 设置构造时连通性探测的尝试次数。
//
// 探测失败不阻止构造，仅记录告警日志，客户端以 Healthy 状态
// 启动并由熔断器接管后续失败。设为 0 跳过探测。
// 默认值：3
func WithPingAttempts(n uint) Option {
	return func(o *options) {
		o.pingAttempts = n
	}
}

// WithLogger 设置日志记录器。
//
// 默认使用 slog.Default()。
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
