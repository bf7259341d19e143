package cachemgr

import (
	"fmt"
	"time"

	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/omeyang/cachekit/pkg/memtier"
)

// Format 配置数据格式。
type Format string

const (
	// FormatYAML YAML 格式
	FormatYAML Format = "yaml"
	// FormatJSON JSON 格式
	FormatJSON Format = "json"
)

// 默认配置值
const (
	DefaultTTL                  = 5 * time.Minute
	DefaultMaxMemorySize        = 10000
	DefaultCompressionThreshold = 1024
	DefaultConnectionPoolSize   = 10
	DefaultBatchSize            = 100
	DefaultWarmupQueueSize      = 1024
	DefaultKeyPrefix            = "cachekit:"
)

// Config 缓存管理器配置。
//
// 字段带 koanf 标签，可通过 ParseConfig 从 YAML/JSON 数据加载，
// 未出现的键保留默认值。
type Config struct {
	// SharedStoreAddress 共享后端地址（host:port）。
	// 为空时管理器运行在仅内存模式。
	SharedStoreAddress string `koanf:"shared_store_address"`

	// DefaultTTL 未显式指定 TTL 时条目的存活时间。
	DefaultTTL time.Duration `koanf:"default_ttl"`

	// MaxMemorySize 内存层最大条目数。
	MaxMemorySize int `koanf:"max_memory_size"`

	// CompressionThreshold 值超过该字节数时压缩，0 表示全部压缩。
	CompressionThreshold int `koanf:"compression_threshold"`

	// ConnectionPoolSize 共享后端连接池大小。
	ConnectionPoolSize int `koanf:"connection_pool_size"`

	// EvictionStrategy 内存层淘汰策略：lru、lfu、fifo 或 random。
	EvictionStrategy string `koanf:"eviction_strategy"`

	// WarmupEnabled 是否启用异步预热队列。
	// 禁用时 WarmupCache 退化为同步写入。
	WarmupEnabled bool `koanf:"warmup_enabled"`

	// WarmupQueueSize 预热队列容量，溢出丢弃最旧条目。
	WarmupQueueSize int `koanf:"warmup_queue_size"`

	// BatchSize 批量操作的分片大小。
	BatchSize int `koanf:"batch_size"`

	// MonitoringEnabled 是否收集统计。
	// 禁用时 Stats 返回零值快照。
	MonitoringEnabled bool `koanf:"monitoring_enabled"`

	// KeyPrefix 共享后端的键前缀，用于命名空间隔离和 Clear。
	KeyPrefix string `koanf:"key_prefix"`
}

// DefaultConfig 返回带默认值的配置。
// 默认不连接共享后端（仅内存模式），LRU 淘汰，启用预热与统计。
func DefaultConfig() Config {
	return Config{
		DefaultTTL:           DefaultTTL,
		MaxMemorySize:        DefaultMaxMemorySize,
		CompressionThreshold: DefaultCompressionThreshold,
		ConnectionPoolSize:   DefaultConnectionPoolSize,
		EvictionStrategy:     string(memtier.StrategyLRU),
		WarmupEnabled:        true,
		WarmupQueueSize:      DefaultWarmupQueueSize,
		BatchSize:            DefaultBatchSize,
		MonitoringEnabled:    true,
		KeyPrefix:            DefaultKeyPrefix,
	}
}

// ParseConfig 从字节数据解析配置，未出现的键保留默认值。
//
// time.Duration 字段接受 "30s"、"5m" 等字符串写法。
// 解析成功后执行 Validate，非法配置返回 ErrInvalidConfig。
func ParseConfig(data []byte, format Format) (Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = kyaml.Parser()
	case FormatJSON:
		parser = kjson.Parser()
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 校验配置。所有失败都包装 ErrInvalidConfig。
func (c Config) Validate() error {
	if c.DefaultTTL < 0 {
		return fmt.Errorf("%w: default_ttl cannot be negative", ErrInvalidConfig)
	}
	if c.MaxMemorySize <= 0 {
		return fmt.Errorf("%w: max_memory_size must be positive", ErrInvalidConfig)
	}
	if c.CompressionThreshold < 0 {
		return fmt.Errorf("%w: compression_threshold cannot be negative", ErrInvalidConfig)
	}
	if c.SharedStoreAddress != "" && c.ConnectionPoolSize <= 0 {
		return fmt.Errorf("%w: connection_pool_size must be positive", ErrInvalidConfig)
	}
	if _, err := memtier.ParseStrategy(c.EvictionStrategy); err != nil {
		return fmt.Errorf("%w: unknown eviction_strategy %q", ErrInvalidConfig, c.EvictionStrategy)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch_size must be positive", ErrInvalidConfig)
	}
	if c.WarmupEnabled && c.WarmupQueueSize <= 0 {
		return fmt.Errorf("%w: warmup_queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
