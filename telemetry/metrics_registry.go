package telemetry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/KOMKZ/go-yogan-event/component"
	"github.com/KOMKZ/go-yogan-event/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// MetricsRegistry hands each MetricsProvider a Meter named {namespace}_{provider}.
// The event component registers its DispatchMetrics here when telemetry is on.
type MetricsRegistry struct {
	meterProvider metric.MeterProvider
	meters        map[string]metric.Meter
	providers     map[string]component.MetricsProvider
	baseLabels    []attribute.KeyValue
	namespace     string
	enabled       bool
	logger        *logger.CtxZapLogger
	mu            sync.RWMutex
}

// MetricsRegistryOption configures the MetricsRegistry.
type MetricsRegistryOption func(*MetricsRegistry)

// WithNamespace sets the meter name prefix
func WithNamespace(namespace string) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.namespace = namespace
	}
}

// WithBaseLabels sets labels every provider may attach (service.name etc.)
func WithBaseLabels(labels []attribute.KeyValue) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.baseLabels = labels
	}
}

// WithLogger sets the registry logger
func WithLogger(l *logger.CtxZapLogger) MetricsRegistryOption {
	return func(r *MetricsRegistry) {
		r.logger = l
	}
}

// NewMetricsRegistry creates a registry; nil mp falls back to the otel global
func NewMetricsRegistry(mp metric.MeterProvider, opts ...MetricsRegistryOption) *MetricsRegistry {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	r := &MetricsRegistry{
		meterProvider: mp,
		meters:        make(map[string]metric.Meter),
		providers:     make(map[string]component.MetricsProvider),
		namespace:     "yogan",
		enabled:       true,
		logger:        logger.GetLogger("yogan"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register 为 provider 创建 Meter 并调用 RegisterMetrics。
// 同一个 provider 重复注册是 no-op；不同 provider 使用同名返回错误。
func (r *MetricsRegistry) Register(provider component.MetricsProvider) error {
	if provider == nil {
		return fmt.Errorf("metrics provider is nil")
	}

	name := provider.MetricsName()
	if name == "" {
		return fmt.Errorf("metrics provider name is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return nil
	}
	if !provider.IsMetricsEnabled() {
		r.logger.Debug("metrics disabled for provider", zap.String("provider", name))
		return nil
	}

	if existing, ok := r.providers[name]; ok {
		if existing == provider {
			return nil
		}
		return fmt.Errorf("metrics provider %q already registered", name)
	}

	if err := provider.RegisterMetrics(r.getMeterLocked(name)); err != nil {
		return fmt.Errorf("register metrics for %q failed: %w", name, err)
	}

	r.providers[name] = provider
	r.logger.Info("metrics provider registered",
		zap.String("provider", name),
		zap.String("meter", r.meterName(name)))
	return nil
}

// GetMeter returns the Meter for name, creating it on first use
func (r *MetricsRegistry) GetMeter(name string) metric.Meter {
	r.mu.RLock()
	if meter, ok := r.meters[name]; ok {
		r.mu.RUnlock()
		return meter
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getMeterLocked(name)
}

func (r *MetricsRegistry) getMeterLocked(name string) metric.Meter {
	if meter, ok := r.meters[name]; ok {
		return meter
	}
	meter := r.meterProvider.Meter(r.meterName(name))
	r.meters[name] = meter
	return meter
}

func (r *MetricsRegistry) meterName(name string) string {
	if r.namespace == "" {
		return name
	}
	return r.namespace + "_" + name
}

// GetBaseLabels returns a copy of the base labels
func (r *MetricsRegistry) GetBaseLabels() []attribute.KeyValue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]attribute.KeyValue{}, r.baseLabels...)
}

// IsEnabled returns whether Register does anything
func (r *MetricsRegistry) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// SetEnabled toggles registration
func (r *MetricsRegistry) SetEnabled(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// Names 已注册的 provider 名称（排序后）
func (r *MetricsRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var _ component.MetricsCollector = (*MetricsRegistry)(nil)
