package health

import (
	"context"
	"time"

	"github.com/KOMKZ/go-yogan-event/component"
	"github.com/KOMKZ/go-yogan-event/logger"
	"go.uber.org/zap"
)

// ComponentName 组件名称
const ComponentName = "health"

// Config 健康检查配置
type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Timeout: 5 * time.Second,
	}
}

// Component 健康检查组件
type Component struct {
	aggregator *Aggregator
	config     Config
	logger     *logger.CtxZapLogger
	providers  []component.HealthCheckProvider
	metadata   map[string]interface{}
}

// NewComponent 创建健康检查组件；providers 的检查器在 Start 时注册
func NewComponent(log *logger.CtxZapLogger, providers ...component.HealthCheckProvider) *Component {
	if log == nil {
		log = logger.GetLogger("yogan")
	}
	return &Component{
		logger:    log,
		providers: providers,
		metadata:  make(map[string]interface{}),
	}
}

// Name 组件名称
func (c *Component) Name() string {
	return ComponentName
}

// DependsOn 依赖组件
func (c *Component) DependsOn() []string {
	return []string{
		component.ComponentConfig,
		component.ComponentLogger,
	}
}

// SetMetadata records a key returned with every Response (service, version)
func (c *Component) SetMetadata(key string, value interface{}) {
	c.metadata[key] = value
	if c.aggregator != nil {
		c.aggregator.SetMetadata(key, value)
	}
}

// Init 加载配置，配置解析失败时退回默认值
func (c *Component) Init(ctx context.Context, loader component.ConfigLoader) error {
	c.config = DefaultConfig()
	if loader != nil && loader.IsSet(ComponentName) {
		if err := loader.Unmarshal(ComponentName, &c.config); err != nil {
			c.logger.WarnCtx(ctx, "健康检查配置解析失败，使用默认配置", zap.Error(err))
			c.config = DefaultConfig()
		}
	}

	if !c.config.Enabled {
		c.logger.InfoCtx(ctx, "Health check is disabled")
		return nil
	}

	c.aggregator = NewAggregator(c.config.Timeout)
	for k, v := range c.metadata {
		c.aggregator.SetMetadata(k, v)
	}

	c.logger.DebugCtx(ctx, "✅ Health check component initialized",
		zap.Duration("timeout", c.config.Timeout))
	return nil
}

// Start registers the checker of every provider passed to NewComponent
func (c *Component) Start(ctx context.Context) error {
	if c.aggregator == nil {
		return nil
	}

	for _, p := range c.providers {
		if p == nil {
			continue
		}
		if checker := p.GetHealthChecker(); checker != nil {
			c.aggregator.Register(checker)
			c.logger.DebugCtx(ctx, "Registered health checker", zap.String("name", checker.Name()))
		}
	}
	return nil
}

// Stop 停止组件
func (c *Component) Stop(ctx context.Context) error {
	return nil
}

// GetAggregator 未启用时为 nil
func (c *Component) GetAggregator() *Aggregator {
	return c.aggregator
}

// IsEnabled 是否启用
func (c *Component) IsEnabled() bool {
	return c.config.Enabled
}

// Check 执行健康检查；未启用时总是健康
func (c *Component) Check(ctx context.Context) *Response {
	if c.aggregator == nil {
		return &Response{
			Status:    StatusHealthy,
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckResult),
			Metadata:  map[string]interface{}{"enabled": false},
		}
	}
	return c.aggregator.Check(ctx)
}
