// Package di 提供基于 samber/do 的依赖注入支持
package di

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/KOMKZ/go-yogan-event/config"
	"github.com/KOMKZ/go-yogan-event/event"
	"github.com/KOMKZ/go-yogan-event/health"
	"github.com/KOMKZ/go-yogan-event/logger"
	"github.com/samber/do/v2"
	"go.uber.org/zap"
)

// AppState 应用状态
type AppState int

const (
	StateInit AppState = iota
	StateSetup
	StateRunning
	StateStopping
	StateStopped
)

var stateNames = [...]string{"Init", "Setup", "Running", "Stopping", "Stopped"}

func (s AppState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// DoApplication 装配 config、logger、telemetry、event、health，
// 并在 Start 时把订阅者注册到 Dispatcher
type DoApplication struct {
	injector *do.RootScope

	configPath   string
	configPrefix string
	env          string
	configLoader *config.Loader

	logger *logger.CtxZapLogger

	ctx    context.Context
	cancel context.CancelFunc
	state  AppState
	mu     sync.RWMutex

	name    string
	version string

	subscribers []event.Subscriber

	onSetup    func(*DoApplication) error
	onReady    func(*DoApplication) error
	onShutdown func(context.Context) error
}

// DoAppOption 应用选项
type DoAppOption func(*DoApplication)

// WithConfigPath 配置目录，默认 ./configs
func WithConfigPath(path string) DoAppOption {
	return func(app *DoApplication) { app.configPath = path }
}

// WithConfigPrefix 环境变量前缀
func WithConfigPrefix(prefix string) DoAppOption {
	return func(app *DoApplication) { app.configPrefix = prefix }
}

// WithEnv overrides APP_ENV / ENV when picking <env>.yaml
func WithEnv(env string) DoAppOption {
	return func(app *DoApplication) { app.env = env }
}

// WithName 应用名称（也是应用 logger 的模块名）
func WithName(name string) DoAppOption {
	return func(app *DoApplication) { app.name = name }
}

// WithVersion 应用版本
func WithVersion(version string) DoAppOption {
	return func(app *DoApplication) { app.version = version }
}

// WithSubscribers 启动时注册订阅者
func WithSubscribers(subscribers ...event.Subscriber) DoAppOption {
	return func(app *DoApplication) {
		app.subscribers = append(app.subscribers, subscribers...)
	}
}

// WithOnSetup runs after providers are registered, before anything is invoked
func WithOnSetup(fn func(*DoApplication) error) DoAppOption {
	return func(app *DoApplication) { app.onSetup = fn }
}

// WithOnReady runs once subscribers are attached
func WithOnReady(fn func(*DoApplication) error) DoAppOption {
	return func(app *DoApplication) { app.onReady = fn }
}

// WithOnShutdown runs before the injector shuts down
func WithOnShutdown(fn func(context.Context) error) DoAppOption {
	return func(app *DoApplication) { app.onShutdown = fn }
}

// NewDoApplication 创建应用实例
func NewDoApplication(opts ...DoAppOption) *DoApplication {
	ctx, cancel := context.WithCancel(context.Background())
	app := &DoApplication{
		injector:   do.New(),
		configPath: "./configs",
		ctx:        ctx,
		cancel:     cancel,
		state:      StateInit,
		name:       "yogan-app",
		version:    "0.0.1",
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Injector 获取 do.Injector
func (app *DoApplication) Injector() *do.RootScope {
	return app.injector
}

// Logger Setup 之后可用
func (app *DoApplication) Logger() *logger.CtxZapLogger {
	return app.logger
}

// ConfigLoader Setup 之后可用
func (app *DoApplication) ConfigLoader() *config.Loader {
	return app.configLoader
}

// Context is cancelled by Shutdown
func (app *DoApplication) Context() context.Context {
	return app.ctx
}

// State 当前状态
func (app *DoApplication) State() AppState {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.state
}

func (app *DoApplication) setState(state AppState) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.state = state
}

// Setup 加载配置与日志，注册其余 Provider（懒加载，Start 时才初始化）
func (app *DoApplication) Setup() error {
	app.setState(StateSetup)

	do.Provide(app.injector, ProvideConfigLoader(ConfigOptions{
		ConfigPath:   app.configPath,
		ConfigPrefix: app.configPrefix,
		Env:          app.env,
	}))
	loader, err := do.Invoke[*config.Loader](app.injector)
	if err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}
	app.configLoader = loader

	do.Provide(app.injector, ProvideLoggerManager)
	do.Provide(app.injector, ProvideCtxLogger(app.name))
	if app.logger, err = do.Invoke[*logger.CtxZapLogger](app.injector); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	app.logger.Info("🔧 应用初始化中...",
		zap.String("name", app.name),
		zap.String("version", app.version),
		zap.String("config_path", app.configPath),
		zap.Strings("config_files", loader.GetLoadedFiles()),
	)

	RegisterEventProviders(app.injector)
	do.Provide(app.injector, ProvideHealthComponent)

	if app.onSetup != nil {
		if err := app.onSetup(app); err != nil {
			return fmt.Errorf("setup 回调失败: %w", err)
		}
	}
	return nil
}

// Start 初始化事件组件、注册订阅者并启动健康检查。
// 事件组件禁用且没有订阅者时只记录警告。
func (app *DoApplication) Start() error {
	manager, err := do.Invoke[*event.Manager](app.injector)
	switch {
	case err != nil && len(app.subscribers) > 0:
		return fmt.Errorf("初始化事件组件失败: %w", err)
	case err != nil:
		app.logger.Warn("事件分发器不可用", zap.Error(err))
	default:
		if err := manager.RegisterAll(app.subscribers...); err != nil {
			return fmt.Errorf("注册订阅者失败: %w", err)
		}
	}

	hc, err := do.Invoke[*health.Component](app.injector)
	if err != nil {
		return fmt.Errorf("初始化健康检查失败: %w", err)
	}
	hc.SetMetadata("service", app.name)
	hc.SetMetadata("version", app.version)

	app.setState(StateRunning)
	app.logger.Info("✅ 应用启动完成",
		zap.String("name", app.name),
		zap.Int("subscribers", len(app.subscribers)),
	)

	if app.onReady != nil {
		if err := app.onReady(app); err != nil {
			return fmt.Errorf("ready 回调失败: %w", err)
		}
	}
	return nil
}

// Run Setup + Start，然后阻塞直到 SIGINT/SIGTERM
func (app *DoApplication) Run() error {
	if err := app.Setup(); err != nil {
		return err
	}
	if err := app.Start(); err != nil {
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	app.logger.Info("📥 收到退出信号", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return app.Shutdown(ctx)
}

// Shutdown 优雅关闭；injector 按依赖反序关闭 dispatcher、event、telemetry、logger
func (app *DoApplication) Shutdown(ctx context.Context) error {
	app.setState(StateStopping)
	app.logger.Info("🔄 开始优雅关闭...")

	if app.onShutdown != nil {
		if err := app.onShutdown(ctx); err != nil {
			app.logger.Warn("shutdown 回调失败", zap.Error(err))
		}
	}

	app.cancel()

	if err := app.injector.Shutdown(); err != nil {
		app.logger.Warn("injector shutdown 失败", zap.Error(err))
	}

	app.setState(StateStopped)
	app.logger.Info("✅ 应用已关闭")
	return nil
}

// Dispatcher 获取事件分发器（Start 之后可用）
func (app *DoApplication) Dispatcher() (event.Dispatcher, error) {
	return do.Invoke[event.Dispatcher](app.injector)
}

// Health 汇总组件健康状态（Start 之后可用）
func (app *DoApplication) Health(ctx context.Context) (*health.Response, error) {
	hc, err := do.Invoke[*health.Component](app.injector)
	if err != nil {
		return nil, err
	}
	return hc.Check(ctx), nil
}

// HealthCheck 返回 samber/do 对已实例化服务的检查结果
func (app *DoApplication) HealthCheck() map[string]error {
	return app.injector.HealthCheck()
}

// IsHealthy 是否健康
func (app *DoApplication) IsHealthy() bool {
	for _, err := range app.HealthCheck() {
		if err != nil {
			return false
		}
	}
	return true
}
