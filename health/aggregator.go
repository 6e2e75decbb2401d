package health

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Aggregator runs registered checkers concurrently under one timeout
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
	metadata map[string]interface{}
}

// NewAggregator 创建聚合器，timeout <= 0 时使用 5s
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Aggregator{
		timeout:  timeout,
		metadata: make(map[string]interface{}),
	}
}

// Register 注册检查项，nil 忽略
func (a *Aggregator) Register(checkers ...Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, c := range checkers {
		if c != nil {
			a.checkers = append(a.checkers, c)
		}
	}
}

// Names 已注册检查项名称
func (a *Aggregator) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.checkers))
	for _, c := range a.checkers {
		names = append(names, c.Name())
	}
	return names
}

// SetMetadata 设置随结果返回的元数据
func (a *Aggregator) SetMetadata(key string, value interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Check 并发执行所有检查项
func (a *Aggregator) Check(ctx context.Context) *Response {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	a.mu.RLock()
	checkers := slices.Clone(a.checkers)
	metadata := maps.Clone(a.metadata)
	a.mu.RUnlock()

	results := make([]CheckResult, len(checkers))
	var g errgroup.Group
	for i, checker := range checkers {
		g.Go(func() error {
			results[i] = checkOne(checkCtx, checker)
			return nil
		})
	}
	_ = g.Wait()

	checks := make(map[string]CheckResult, len(results))
	for _, r := range results {
		checks[r.Name] = r
	}

	return &Response{
		Status:    overallStatus(checks),
		Timestamp: time.Now(),
		Duration:  time.Since(start),
		Checks:    checks,
		Metadata:  metadata,
	}
}

// checkOne 检查器 panic 记为不健康
func checkOne(ctx context.Context, checker Checker) (result CheckResult) {
	start := time.Now()
	result = CheckResult{Name: checker.Name(), Timestamp: start}

	defer func() {
		if r := recover(); r != nil {
			result.Status = StatusUnhealthy
			result.Error = fmt.Sprintf("panic: %v", r)
			result.Message = "Health check panicked"
		}
		result.Duration = time.Since(start)
	}()

	switch err := checker.Check(ctx); {
	case err == nil:
		result.Status = StatusHealthy
		result.Message = "OK"
	case errors.Is(err, ErrDegraded):
		result.Status = StatusDegraded
		result.Error = err.Error()
		result.Message = "Degraded"
	default:
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		result.Message = "Health check failed"
	}
	return result
}

// overallStatus 任一不健康即不健康；否则任一降级即降级
func overallStatus(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, r := range checks {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}
