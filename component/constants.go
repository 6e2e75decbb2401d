package component

// 组件名称常量
const (
	ComponentConfig    = "config"
	ComponentLogger    = "logger"
	ComponentTelemetry = "telemetry"
	ComponentEvent     = "event" // 事件分发组件
)
