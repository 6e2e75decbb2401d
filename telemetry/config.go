package telemetry

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var (
	validExporters = []interface{}{"otlp", "stdout", "noop"}
	validSamplers  = []interface{}{"always_on", "always_off", "trace_id_ratio", "parent_based_always_on"}
)

// Config OpenTelemetry 配置
type Config struct {
	Enabled        bool                   `mapstructure:"enabled"`
	ServiceName    string                 `mapstructure:"service_name"`
	ServiceVersion string                 `mapstructure:"service_version"`
	SetGlobal      bool                   `mapstructure:"set_global"` // 是否写入 otel 全局 Provider
	Exporter       ExporterConfig         `mapstructure:"exporter"`
	Sampler        SamplerConfig          `mapstructure:"sampler"`
	ResourceAttrs  map[string]interface{} `mapstructure:"resource_attributes"` // 支持嵌套
	Batch          BatchConfig            `mapstructure:"batch"`
	Metrics        MetricsConfig          `mapstructure:"metrics"`
}

// ExporterConfig exporter configuration
type ExporterConfig struct {
	Type     string            `mapstructure:"type"`     // otlp, stdout, noop
	Endpoint string            `mapstructure:"endpoint"` // otlp only
	Insecure bool              `mapstructure:"insecure"`
	Timeout  time.Duration     `mapstructure:"timeout"`
	Headers  map[string]string `mapstructure:"headers"` // 认证等自定义 Header
}

// SamplerConfig 采样配置
type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Ratio float64 `mapstructure:"ratio"` // 仅 trace_id_ratio 生效
}

// BatchConfig batch span processor configuration
type BatchConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	MaxQueueSize       int           `mapstructure:"max_queue_size"`
	MaxExportBatchSize int           `mapstructure:"max_export_batch_size"`
	ScheduleDelay      time.Duration `mapstructure:"schedule_delay"`
	ExportTimeout      time.Duration `mapstructure:"export_timeout"`
}

// MetricsConfig 指标导出配置
type MetricsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	ExportInterval time.Duration `mapstructure:"export_interval"`
	ExportTimeout  time.Duration `mapstructure:"export_timeout"`
	Namespace      string        `mapstructure:"namespace"` // meter 名前缀
}

// DefaultConfig 默认配置（未启用）
func DefaultConfig() Config {
	return Config{
		Enabled:        false,
		ServiceName:    "yogan-event",
		ServiceVersion: "1.0.0",
		SetGlobal:      true,
		Exporter: ExporterConfig{
			Type:     "otlp",
			Endpoint: "localhost:4317",
			Insecure: true,
			Timeout:  10 * time.Second,
		},
		Sampler: SamplerConfig{
			Type:  "parent_based_always_on",
			Ratio: 1.0,
		},
		ResourceAttrs: make(map[string]interface{}),
		Batch: BatchConfig{
			Enabled:            true,
			MaxQueueSize:       2048,
			MaxExportBatchSize: 512,
			ScheduleDelay:      5 * time.Second,
			ExportTimeout:      30 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:        false,
			ExportInterval: 10 * time.Second,
			ExportTimeout:  5 * time.Second,
			Namespace:      "yogan",
		},
	}
}

// Validate 未启用时不校验
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(&c,
		validation.Field(&c.ServiceName, validation.Required),
		validation.Field(&c.Exporter),
		validation.Field(&c.Sampler),
		validation.Field(&c.Batch),
		validation.Field(&c.Metrics),
	)
}

// Validate exporter configuration
func (c ExporterConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In(validExporters...)),
		validation.Field(&c.Endpoint, validation.When(c.Type == "otlp", validation.Required)),
	)
}

// Validate sampler configuration
func (c SamplerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Type, validation.Required, validation.In(validSamplers...)),
		validation.Field(&c.Ratio, validation.When(c.Type == "trace_id_ratio", validation.Min(0.0), validation.Max(1.0))),
	)
}

// Validate batch configuration
func (c BatchConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxQueueSize, validation.When(c.Enabled, validation.Required, validation.Min(1))),
		validation.Field(&c.MaxExportBatchSize, validation.When(c.Enabled, validation.Required, validation.Min(1))),
	)
}

// Validate metrics configuration
func (c MetricsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ExportInterval, validation.When(c.Enabled, validation.Required)),
	)
}
