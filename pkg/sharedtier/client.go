package sharedtier

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
)

// State 后端健康状态。
type State int

const (
	// StateHealthy 后端正常
	StateHealthy State = iota
	// StateDegraded 熔断中，冷却期内不触碰后端
	StateDegraded
	// StateProbing 冷却结束，放行探测请求
	StateProbing
)

// String 返回状态的可读名称。
func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateProbing:
		return "probing"
	default:
		return "unknown"
	}
}

// Client 共享缓存后端客户端。
//
// 所有方法并发安全。Close 之后的调用返回 ErrClosed。
type Client struct {
	rdb    redis.UniversalClient
	cb     *gobreaker.CircuitBreaker[any]
	opts   *options
	logger *slog.Logger

	// ownsClient 为 true 时 Close 负责关闭底层连接
	ownsClient bool
	closed     atomic.Bool
}

// New 创建连接到 addr 的客户端。
//
// 构造时会带重试地探测一次连通性，探测失败不阻止构造：
// 后端暂时不可用时客户端照常返回，由熔断器接管后续失败。
func New(addr string, opts ...Option) (*Client, error) {
	if addr == "" {
		return nil, ErrEmptyAddr
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.poolSize <= 0 {
		return nil, ErrInvalidPoolSize
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: o.poolSize,
	})

	c := newClient(rdb, o, true)

	if o.pingAttempts > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), o.opTimeout*time.Duration(o.pingAttempts))
		defer cancel()

		err := retry.New(
			retry.Context(ctx),
			retry.Attempts(o.pingAttempts),
			retry.Delay(100*time.Millisecond),
			retry.LastErrorOnly(true),
		).Do(func() error {
			pingCtx, pingCancel := context.WithTimeout(ctx, o.opTimeout)
			defer pingCancel()
			return rdb.Ping(pingCtx).Err()
		})
		if err != nil {
			c.logger.Warn("sharedtier: initial ping failed, starting anyway",
				slog.String("addr", addr), slog.Any("error", err))
		}
	}

	return c, nil
}

// NewFromClient 基于已有的 redis 客户端创建。
//
// 底层连接的生命周期由调用方管理，Close 不会关闭它。
// 主要用于测试和连接复用场景。
func NewFromClient(rdb redis.UniversalClient, opts ...Option) (*Client, error) {
	if rdb == nil {
		return nil, ErrNilClient
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.poolSize <= 0 {
		return nil, ErrInvalidPoolSize
	}

	return newClient(rdb, o, false), nil
}

func newClient(rdb redis.UniversalClient, o *options, ownsClient bool) *Client {
	c := &Client{
		rdb:        rdb,
		opts:       o,
		logger:     o.logger,
		ownsClient: ownsClient,
	}

	threshold := o.failureThreshold
	c.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "sharedtier",
		MaxRequests: 1, // Probing 状态只放行单个探测请求
		Timeout:     o.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Info("sharedtier: state change",
				slog.String("from", mapState(from).String()),
				slog.String("to", mapState(to).String()))
		},
	})

	return c
}

// mapState 把 gobreaker 状态映射为后端健康状态。
func mapState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateDegraded
	case gobreaker.StateHalfOpen:
		return StateProbing
	default:
		return StateHealthy
	}
}

// State 返回当前后端健康状态。
func (c *Client) State() State {
	return mapState(c.cb.State())
}

// do 在熔断器保护下执行一次后端操作。
// 熔断器拒绝时折叠为 ErrUnavailable。
func (c *Client) do(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.closed.Load() {
		return ErrClosed
	}

	_, err := c.cb.Execute(func() (any, error) {
		opCtx, cancel := context.WithTimeout(ctx, c.opts.opTimeout)
		defer cancel()
		return nil, fn(opCtx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrUnavailable
	}
	return err
}

// =============================================================================
// 单键操作
// =============================================================================

// Get 读取键。键缺失时返回 (nil, false, nil)，缺失不是错误。
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	var (
		val   []byte
		found bool
	)
	err := c.do(ctx, func(ctx context.Context) error {
		b, err := c.rdb.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		val, found = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return val, found, nil
}

// Set 写入键。ttl <= 0 表示不过期。
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl < 0 {
		ttl = 0
	}

	return c.do(ctx, func(ctx context.Context) error {
		return c.rdb.Set(ctx, key, value, ttl).Err()
	})
}

// Del 删除若干键。键不存在不是错误。
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	for _, k := range keys {
		if k == "" {
			return ErrEmptyKey
		}
	}

	return c.do(ctx, func(ctx context.Context) error {
		return c.rdb.Del(ctx, keys...).Err()
	})
}

// =============================================================================
// 批量操作
// =============================================================================

// MGet 批量读取，返回命中的键值。缺失的键不出现在结果中。
func (c *Client) MGet(ctx context.Context, keys ...string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	for _, k := range keys {
		if k == "" {
			return nil, ErrEmptyKey
		}
	}

	var out map[string][]byte
	err := c.do(ctx, func(ctx context.Context) error {
		vals, err := c.rdb.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		out = make(map[string][]byte, len(vals))
		for i, v := range vals {
			// MGet 的缺失位是 nil，命中为字符串
			if s, ok := v.(string); ok {
				out[keys[i]] = []byte(s)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MSet 批量写入，使用 pipeline 单次往返。ttl <= 0 表示不过期。
//
// MSET 命令不支持按键过期，因此这里用 pipeline 逐键 SET 代替，
// 保证每个键都带上 TTL。
func (c *Client) MSet(ctx context.Context, items map[string][]byte, ttl time.Duration) error {
	if len(items) == 0 {
		return nil
	}
	for k := range items {
		if k == "" {
			return ErrEmptyKey
		}
	}
	if ttl < 0 {
		ttl = 0
	}

	return c.do(ctx, func(ctx context.Context) error {
		pipe := c.rdb.Pipeline()
		for k, v := range items {
			pipe.Set(ctx, k, v, ttl)
		}
		_, err := pipe.Exec(ctx)
		return err
	})
}

// DeleteByPrefix 删除所有带指定前缀的键，通过 SCAN 渐进遍历。
// 返回删除的键数量。
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, ErrEmptyKey
	}

	var deleted int64
	err := c.do(ctx, func(ctx context.Context) error {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
		batch := make([]string, 0, 100)
		flush := func() error {
			if len(batch) == 0 {
				return nil
			}
			n, err := c.rdb.Del(ctx, batch...).Result()
			if err != nil {
				return err
			}
			deleted += n
			batch = batch[:0]
			return nil
		}
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) >= 100 {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		return flush()
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// =============================================================================
// 生命周期
// =============================================================================

// Ping 探测后端连通性。
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, func(ctx context.Context) error {
		return c.rdb.Ping(ctx).Err()
	})
}

// Close 关闭客户端。幂等。
// 通过 NewFromClient 创建的客户端不关闭底层连接。
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.ownsClient {
		return c.rdb.Close()
	}
	return nil
}
