// Package telemetry 构建 OpenTelemetry Tracer/Meter Provider，供事件分发埋点使用
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/KOMKZ/go-yogan-event/component"
	"github.com/KOMKZ/go-yogan-event/logger"
	"github.com/KOMKZ/go-yogan-event/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrStopped Provider 已关闭
var ErrStopped = errors.New("telemetry: providers already shut down")

// Component OpenTelemetry 组件
type Component struct {
	config          Config
	logger          *logger.CtxZapLogger
	writer          io.Writer // stdout 导出目标
	tracerProvider  *sdktrace.TracerProvider
	meterProvider   *sdkmetric.MeterProvider
	metricsRegistry *MetricsRegistry
	stopOnce        sync.Once
	stopped         bool
	mu              sync.RWMutex
}

// ComponentOption 组件选项
type ComponentOption func(*Component)

// WithComponentLogger 设置组件日志
func WithComponentLogger(l *logger.CtxZapLogger) ComponentOption {
	return func(c *Component) {
		c.logger = l
	}
}

// WithWriter redirects the stdout exporters (tests use a buffer)
func WithWriter(w io.Writer) ComponentOption {
	return func(c *Component) {
		c.writer = w
	}
}

// NewComponent 创建 Telemetry 组件
func NewComponent(opts ...ComponentOption) *Component {
	c := &Component{
		config: DefaultConfig(),
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.GetLogger("yogan")
	}
	return c
}

// Name 返回组件名称
func (c *Component) Name() string {
	return component.ComponentTelemetry
}

// DependsOn 返回依赖的组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
	}
}

// Init 读取 telemetry 配置并创建 Provider
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.config = DefaultConfig()
	if loader != nil && loader.IsSet(component.ComponentTelemetry) {
		if err := loader.Unmarshal(component.ComponentTelemetry, &c.config); err != nil {
			c.logger.ErrorCtx(ctx, "telemetry 配置解析失败", zap.Error(err))
			return fmt.Errorf("unmarshal telemetry config failed: %w", err)
		}
	}

	if err := validator.Validate(component.ComponentTelemetry, c.config); err != nil {
		return err
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "OpenTelemetry is disabled")
		return nil
	}

	res, err := newResource(ctx, c.config)
	if err != nil {
		return fmt.Errorf("create resource failed: %w", err)
	}

	tp, err := newTracerProvider(ctx, c.config, res, c.writer)
	if err != nil {
		return err
	}
	c.tracerProvider = tp

	if c.config.Metrics.Enabled {
		mp, err := newMeterProvider(ctx, c.config, res, c.writer)
		if err != nil {
			_ = tp.Shutdown(ctx)
			return err
		}
		c.meterProvider = mp
		c.metricsRegistry = NewMetricsRegistry(mp,
			WithNamespace(c.config.Metrics.Namespace),
			WithBaseLabels([]attribute.KeyValue{
				attribute.String("service.name", c.config.ServiceName),
				attribute.String("service.version", c.config.ServiceVersion),
			}),
			WithLogger(c.logger),
		)
	}

	if c.config.SetGlobal {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		if c.meterProvider != nil {
			otel.SetMeterProvider(c.meterProvider)
		}
	}

	c.logger.InfoCtx(ctx, "✅ OpenTelemetry initialized",
		zap.String("service_name", c.config.ServiceName),
		zap.String("exporter_type", c.config.Exporter.Type),
		zap.String("sampler_type", c.config.Sampler.Type),
		zap.Bool("metrics", c.config.Metrics.Enabled),
		zap.Bool("set_global", c.config.SetGlobal))
	return nil
}

// Start 启动组件
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop flushes and shuts down both providers; only the first call does work
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		c.mu.Unlock()

		if c.meterProvider != nil {
			if err := c.meterProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown meter provider failed: %w", err))
			}
		}
		if c.tracerProvider != nil {
			if err := c.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown tracer provider failed: %w", err))
			}
		}
		if c.config.Enabled {
			c.logger.InfoCtx(ctx, "✅ OpenTelemetry stopped")
		}
	})
	if err := errors.Join(errs...); err != nil {
		c.logger.ErrorCtx(ctx, "OpenTelemetry 关闭失败", zap.Error(err))
		return err
	}
	return nil
}

// Shutdown lets samber/do stop the component with the injector
func (c *Component) Shutdown(ctx context.Context) error {
	return c.Stop(ctx)
}

// ForceFlush 立即导出缓冲中的 span 与指标
func (c *Component) ForceFlush(ctx context.Context) error {
	var errs []error
	if c.tracerProvider != nil {
		errs = append(errs, c.tracerProvider.ForceFlush(ctx))
	}
	if c.meterProvider != nil {
		errs = append(errs, c.meterProvider.ForceFlush(ctx))
	}
	return errors.Join(errs...)
}

// TracerProvider 未启用时返回 otel 全局 Provider
func (c *Component) TracerProvider() trace.TracerProvider {
	if c.tracerProvider == nil {
		return otel.GetTracerProvider()
	}
	return c.tracerProvider
}

// MeterProvider 未启用指标时返回 otel 全局 Provider
func (c *Component) MeterProvider() metric.MeterProvider {
	if c.meterProvider == nil {
		return otel.GetMeterProvider()
	}
	return c.meterProvider
}

// MetricsRegistry 指标未启用时为 nil
func (c *Component) MetricsRegistry() *MetricsRegistry {
	return c.metricsRegistry
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled
}

// Config 返回生效的配置
func (c *Component) Config() Config {
	return c.config
}

// GetHealthChecker implements component.HealthCheckProvider
func (c *Component) GetHealthChecker() component.HealthChecker {
	return &healthChecker{c: c}
}

type healthChecker struct {
	c *Component
}

func (h *healthChecker) Name() string {
	return component.ComponentTelemetry
}

// Check fails after Stop when telemetry was enabled
func (h *healthChecker) Check(ctx context.Context) error {
	h.c.mu.RLock()
	defer h.c.mu.RUnlock()
	if h.c.config.Enabled && h.c.stopped {
		return ErrStopped
	}
	return nil
}
