package cachestats

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// defaultInstrumentationName OTel instrumentation 默认名称。
	defaultInstrumentationName = "github.com/omeyang/cachekit/cachestats"

	// metricEventsTotal 缓存事件总量指标名称。
	metricEventsTotal = "cachekit.cache.events"
)

// otelConfig OTelObserver 的内部配置。
type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// OTelOption 定义 OTelObserver 的配置选项。
type OTelOption func(*otelConfig)

// WithInstrumentationName 设置 OTel instrumentation 名称。
func WithInstrumentationName(name string) OTelOption {
	return func(cfg *otelConfig) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider 设置 MeterProvider。
// 默认使用 otel.GetMeterProvider()。
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(cfg *otelConfig) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// OTelObserver 将缓存事件上报为 OpenTelemetry 计数器。
// 所有事件汇聚到单一计数器 cachekit.cache.events，
// 以 event 属性区分事件类型，附加属性（tier/strategy）原样透传。
type OTelObserver struct {
	counter metric.Int64Counter
}

// NewOTelObserver 创建 OTel 观测器。
func NewOTelObserver(opts ...OTelOption) (*OTelObserver, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	meter := cfg.meterProvider.Meter(cfg.instrumentationName)
	counter, err := meter.Int64Counter(metricEventsTotal,
		metric.WithDescription("Total cache events by type"))
	if err != nil {
		return nil, fmt.Errorf("cachestats: create counter: %w", err)
	}

	return &OTelObserver{counter: counter}, nil
}

// Add 实现 Observer 接口。
func (o *OTelObserver) Add(event Event, attrs ...Attr) {
	kvs := make([]attribute.KeyValue, 0, len(attrs)+1)
	kvs = append(kvs, attribute.String("event", string(event)))
	for _, a := range attrs {
		kvs = append(kvs, attribute.String(a.Key, a.Value))
	}
	// 计数事件与调用方 context 无关，使用 Background 避免误继承取消信号。
	o.counter.Add(context.Background(), 1, metric.WithAttributes(kvs...))
}
