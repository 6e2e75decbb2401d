package di

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-event/config"
	"github.com/KOMKZ/go-yogan-event/component"
	"github.com/KOMKZ/go-yogan-event/event"
	"github.com/KOMKZ/go-yogan-event/health"
	"github.com/KOMKZ/go-yogan-event/logger"
	"github.com/KOMKZ/go-yogan-event/telemetry"
	"github.com/KOMKZ/go-yogan-event/validator"
	"github.com/samber/do/v2"
)

// ============================================
// 基础组件 Provider（Config, Logger）
// 这些是最底层的依赖，其他组件都依赖它们
// ============================================

// ConfigOptions 配置组件选项
type ConfigOptions struct {
	ConfigPath   string // 配置目录路径
	ConfigPrefix string // 环境变量前缀
	Env          string // 环境名，默认 config.GetEnv()
}

// ProvideConfigLoader 创建 config.Loader 的 Provider
// 这是最基础的组件，无依赖
func ProvideConfigLoader(opts ConfigOptions) func(do.Injector) (*config.Loader, error) {
	return config.ProvideLoader(config.ProvideLoaderOptions{
		ConfigPath:   opts.ConfigPath,
		ConfigPrefix: opts.ConfigPrefix,
		Env:          opts.Env,
	})
}

// ProvideLoggerManager 创建 logger.Manager 的 Provider
// 依赖：config.Loader（可选，缺失时使用默认配置）
func ProvideLoggerManager(i do.Injector) (*logger.Manager, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil || !loader.IsSet("logger") {
		return logger.NewManager(logger.DefaultManagerConfig()), nil
	}

	loggerCfg := logger.DefaultManagerConfig()
	if err := loader.Unmarshal("logger", &loggerCfg); err != nil {
		return nil, fmt.Errorf("读取 logger 配置失败: %w", err)
	}

	loggerCfg.ApplyDefaults()
	if err := validator.Validate("logger", loggerCfg); err != nil {
		return nil, err
	}
	return logger.NewManager(loggerCfg), nil
}

// ProvideCtxLogger 创建命名 CtxZapLogger 的 Provider 工厂
// 用于应用层获取特定模块的 logger
func ProvideCtxLogger(moduleName string) func(do.Injector) (*logger.CtxZapLogger, error) {
	return func(i do.Injector) (*logger.CtxZapLogger, error) {
		mgr, err := do.Invoke[*logger.Manager](i)
		if err != nil {
			// 回退到全局 logger
			return logger.GetLogger(moduleName), nil
		}
		return mgr.GetLogger(moduleName), nil
	}
}

// componentLogger 取 logger.Manager 的 yogan logger，缺失时回退全局
func componentLogger(i do.Injector) *logger.CtxZapLogger {
	if mgr, err := do.Invoke[*logger.Manager](i); err == nil {
		return mgr.GetLogger("yogan")
	}
	return logger.GetLogger("yogan")
}

// ============================================
// Telemetry 组件 Provider
// 依赖：Config, Logger
// ============================================

// ProvideTelemetryComponent 创建并初始化 telemetry 组件（未启用时 Provider 为全局 noop）
func ProvideTelemetryComponent(i do.Injector) (*telemetry.Component, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	comp := telemetry.NewComponent(telemetry.WithComponentLogger(componentLogger(i)))
	if err := comp.Init(context.Background(), loader); err != nil {
		return nil, err
	}
	if err := comp.Start(context.Background()); err != nil {
		return nil, err
	}
	return comp, nil
}

// ============================================
// Event 组件 Provider
// 依赖：Config, Logger, Telemetry（可选）
// ============================================

// ProvideEventComponent 创建并初始化事件组件
// telemetry 已注册且启用时，span 与指标走 telemetry 的 Provider
// 组件关闭由 injector.Shutdown 触发
func ProvideEventComponent(i do.Injector) (*event.Component, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	opts := []event.ComponentOption{event.WithComponentLogger(componentLogger(i))}
	if tel, err := do.Invoke[*telemetry.Component](i); err == nil && tel.IsEnabled() {
		opts = append(opts,
			event.WithTracerProvider(tel.TracerProvider()),
			event.WithMeterProvider(tel.MeterProvider()),
		)
		if registry := tel.MetricsRegistry(); registry != nil {
			opts = append(opts, event.WithMetricsCollector(registry))
		}
	}

	comp := event.NewComponent(opts...)
	if err := comp.Init(context.Background(), loader); err != nil {
		return nil, err
	}
	if err := comp.Start(context.Background()); err != nil {
		return nil, err
	}
	return comp, nil
}

// ProvideEventDispatcher 从事件组件取出 Dispatcher
// 事件组件未启用时返回错误
func ProvideEventDispatcher(i do.Injector) (event.Dispatcher, error) {
	comp, err := do.Invoke[*event.Component](i)
	if err != nil {
		return nil, err
	}
	if !comp.IsEnabled() {
		return nil, ErrComponentNotFound("event (disabled)")
	}
	return comp.GetDispatcher(), nil
}

// ProvideEventManager 提供订阅管理器
func ProvideEventManager(i do.Injector) (*event.Manager, error) {
	d, err := do.Invoke[event.Dispatcher](i)
	if err != nil {
		return nil, err
	}
	return event.NewManager(d), nil
}

// RegisterEventProviders registers telemetry, the event component, its dispatcher and the subscriber manager
func RegisterEventProviders(injector do.Injector) {
	do.Provide(injector, ProvideTelemetryComponent)
	do.Provide(injector, ProvideEventComponent)
	do.Provide(injector, ProvideEventDispatcher)
	do.Provide(injector, ProvideEventManager)
}

// ============================================
// Health 组件 Provider
// 依赖：Config, Logger, Event, Telemetry
// ============================================

// ProvideHealthComponent 汇总 event 与 telemetry 的健康检查
func ProvideHealthComponent(i do.Injector) (*health.Component, error) {
	loader, err := do.Invoke[*config.Loader](i)
	if err != nil {
		return nil, err
	}

	var providers []component.HealthCheckProvider
	if comp, err := do.Invoke[*telemetry.Component](i); err == nil {
		providers = append(providers, comp)
	}
	if comp, err := do.Invoke[*event.Component](i); err == nil {
		providers = append(providers, comp)
	}

	comp := health.NewComponent(componentLogger(i), providers...)
	if err := comp.Init(context.Background(), loader); err != nil {
		return nil, err
	}
	if err := comp.Start(context.Background()); err != nil {
		return nil, err
	}
	return comp, nil
}

// ErrComponentNotFound 组件未找到错误
func ErrComponentNotFound(name string) error {
	return &ComponentNotFoundError{Name: name}
}

// ComponentNotFoundError 组件未找到错误类型
type ComponentNotFoundError struct {
	Name string
}

func (e *ComponentNotFoundError) Error() string {
	return "component not found: " + e.Name
}
