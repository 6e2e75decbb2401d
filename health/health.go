// Package health 汇总各组件的健康检查结果
package health

import (
	"errors"
	"time"

	"github.com/KOMKZ/go-yogan-event/component"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded" // 可用但部分能力受限
	StatusUnhealthy Status = "unhealthy"
)

// ErrDegraded 检查器返回包裹该错误的 error 时记为降级而非不健康
var ErrDegraded = errors.New("degraded")

// Checker 是 component.HealthChecker 的别名
type Checker = component.HealthChecker

// CheckResult 单个检查项的结果
type CheckResult struct {
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Message   string        `json:"message,omitempty"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Response 汇总结果
type Response struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// IsHealthy 整体是否健康
func (r *Response) IsHealthy() bool {
	return r.Status == StatusHealthy
}

// IsDegraded 是否降级
func (r *Response) IsDegraded() bool {
	return r.Status == StatusDegraded
}
