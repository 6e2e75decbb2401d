package event

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-event/component"
	"github.com/KOMKZ/go-yogan-event/logger"
	"github.com/KOMKZ/go-yogan-event/validator"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Component 事件组件
type Component struct {
	dispatcher     *dispatcher
	manager        *Manager
	metrics        *DispatchMetrics
	logger         *logger.CtxZapLogger
	config         Config
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	collector      component.MetricsCollector
}

// ComponentOption 组件选项
type ComponentOption func(*Component)

// WithComponentLogger sets the logger handed to the dispatcher
func WithComponentLogger(l *logger.CtxZapLogger) ComponentOption {
	return func(c *Component) {
		c.logger = l
	}
}

// WithMeterProvider sets where dispatch metrics are registered (default: otel global)
func WithMeterProvider(mp metric.MeterProvider) ComponentOption {
	return func(c *Component) {
		c.meterProvider = mp
	}
}

// WithTracerProvider sets where dispatch spans go (default: otel global)
func WithTracerProvider(tp trace.TracerProvider) ComponentOption {
	return func(c *Component) {
		c.tracerProvider = tp
	}
}

// WithMetricsCollector registers dispatch metrics through a central collector
// instead of a bare MeterProvider
func WithMetricsCollector(mc component.MetricsCollector) ComponentOption {
	return func(c *Component) {
		c.collector = mc
	}
}

// NewComponent 创建事件组件
func NewComponent(opts ...ComponentOption) *Component {
	c := &Component{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name 返回组件名称
func (c *Component) Name() string {
	return component.ComponentEvent
}

// DependsOn 返回依赖的组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
		"optional:" + component.ComponentTelemetry,
	}
}

// Init 读取 event 配置并创建分发器
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	if c.logger == nil {
		c.logger = logger.GetLogger("yogan")
	}
	c.logger.DebugCtx(ctx, "🔧 事件组件开始初始化...")

	c.config = DefaultConfig()
	if loader != nil && loader.IsSet("event") {
		if err := loader.Unmarshal("event", &c.config); err != nil {
			return fmt.Errorf("读取事件配置失败: %w", err)
		}
	} else {
		c.logger.DebugCtx(ctx, "使用默认事件配置")
	}

	if err := validator.Validate("event", c.config); err != nil {
		return err
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "⏭️ 事件组件已禁用")
		return nil
	}

	opts := []DispatcherOption{
		WithPoolSize(c.config.PoolSize),
		WithDefaultPriority(c.config.DefaultPriority),
		WithLogger(c.logger),
		WithTracer(c.tracer()),
	}

	if c.config.Metrics.Enabled {
		c.metrics = NewDispatchMetrics(c.config.Metrics)
		opts = append(opts, WithMetrics(c.metrics))
	}

	c.dispatcher = NewDispatcher(opts...)
	c.manager = NewManager(c.dispatcher)

	if c.metrics != nil && c.collector != nil {
		if err := c.collector.Register(c.metrics); err != nil {
			return fmt.Errorf("注册事件指标失败: %w", err)
		}
	} else if c.metrics != nil {
		mp := c.meterProvider
		if mp == nil {
			mp = otel.GetMeterProvider()
		}
		if err := c.metrics.RegisterMetrics(mp.Meter(instrumentationName)); err != nil {
			return fmt.Errorf("注册事件指标失败: %w", err)
		}
	}

	c.logger.InfoCtx(ctx, "✅ 事件组件初始化完成",
		zap.Int("pool_size", c.config.PoolSize),
		zap.Int("default_priority", c.config.DefaultPriority),
		zap.Bool("metrics", c.config.Metrics.Enabled),
		zap.Bool("tracing", c.config.Tracing.Enabled))
	return nil
}

func (c *Component) tracer() trace.Tracer {
	if !c.config.Tracing.Enabled {
		return tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	if c.tracerProvider != nil {
		return c.tracerProvider.Tracer(instrumentationName)
	}
	return otel.Tracer(instrumentationName)
}

// Start 启动组件
func (c *Component) Start(ctx context.Context) error {
	return nil
}

// Stop 停止组件
func (c *Component) Stop(ctx context.Context) error {
	if c.dispatcher != nil && !c.dispatcher.IsClosed() {
		c.dispatcher.Close()
		c.logger.InfoCtx(ctx, "✅ 事件组件已停止")
	}
	return nil
}

// Shutdown lets samber/do stop the component with the injector
func (c *Component) Shutdown(ctx context.Context) error {
	return c.Stop(ctx)
}

// GetDispatcher 获取事件分发器（未启用时为 nil）
func (c *Component) GetDispatcher() Dispatcher {
	if c.dispatcher == nil {
		return nil
	}
	return c.dispatcher
}

// GetManager 获取订阅管理器（未启用时为 nil）
func (c *Component) GetManager() *Manager {
	return c.manager
}

// GetMetrics returns the metrics provider, nil when metrics are disabled
func (c *Component) GetMetrics() *DispatchMetrics {
	return c.metrics
}

// Config 返回生效的配置
func (c *Component) Config() Config {
	return c.config
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled && c.dispatcher != nil
}

// GetHealthChecker implements component.HealthCheckProvider
func (c *Component) GetHealthChecker() component.HealthChecker {
	return &healthChecker{c: c}
}

type healthChecker struct {
	c *Component
}

func (h *healthChecker) Name() string {
	return component.ComponentEvent
}

// Check fails once the dispatcher is closed; a disabled component is healthy
func (h *healthChecker) Check(ctx context.Context) error {
	if !h.c.config.Enabled {
		return nil
	}
	if h.c.dispatcher == nil {
		return fmt.Errorf("事件组件未初始化")
	}
	if h.c.dispatcher.IsClosed() {
		return ErrDispatcherClosed
	}
	return nil
}
