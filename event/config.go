package event

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config 事件组件配置（配置文件中的 event 段）
type Config struct {
	Enabled         bool          `mapstructure:"enabled"`
	PoolSize        int           `mapstructure:"pool_size"`        // Defer 使用的协程池大小
	DefaultPriority int           `mapstructure:"default_priority"` // 未指定优先级时使用
	Metrics         MetricsConfig `mapstructure:"metrics"`
	Tracing         TracingConfig `mapstructure:"tracing"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled             bool `mapstructure:"enabled"`
	RecordListenerCount bool `mapstructure:"record_listener_count"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		PoolSize:        100,
		DefaultPriority: DefaultPriority,
		Metrics: MetricsConfig{
			Enabled:             false,
			RecordListenerCount: true,
		},
		Tracing: TracingConfig{
			Enabled: true,
		},
	}
}

// Validate 校验配置
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PoolSize, validation.When(c.Enabled, validation.Required, validation.Min(1), validation.Max(100000))),
	)
}
