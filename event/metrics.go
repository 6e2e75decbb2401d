package event

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// DispatchMetrics implements component.MetricsProvider for dispatch instrumentation.
type DispatchMetrics struct {
	config     MetricsConfig
	registered bool
	mu         sync.RWMutex

	dispatches       metric.Int64Counter
	invocations      metric.Int64Counter
	dispatchDuration metric.Float64Histogram
	listeners        metric.Int64ObservableGauge

	listenerCount func() int64
}

// NewDispatchMetrics creates a metrics provider, instruments are created by RegisterMetrics
func NewDispatchMetrics(cfg MetricsConfig) *DispatchMetrics {
	return &DispatchMetrics{config: cfg}
}

// MetricsName returns the metrics group name
func (m *DispatchMetrics) MetricsName() string {
	return "event"
}

// IsMetricsEnabled returns whether metrics collection is enabled
func (m *DispatchMetrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics creates the instruments on meter. Later calls are no-ops.
func (m *DispatchMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	var err error

	m.dispatches, err = meter.Int64Counter(
		"event_dispatch_total",
		metric.WithDescription("Total number of dispatch calls by terminal outcome"),
		metric.WithUnit("{dispatch}"),
	)
	if err != nil {
		return err
	}

	m.invocations, err = meter.Int64Counter(
		"event_listener_invocations_total",
		metric.WithDescription("Total number of listener invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return err
	}

	m.dispatchDuration, err = meter.Float64Histogram(
		"event_dispatch_duration_seconds",
		metric.WithDescription("Time from dispatch start to terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	if m.config.RecordListenerCount {
		m.listeners, err = meter.Int64ObservableGauge(
			"event_listeners",
			metric.WithDescription("Current number of attached listeners"),
			metric.WithUnit("{listener}"),
			metric.WithInt64Callback(m.collectListenerCount),
		)
		if err != nil {
			return err
		}
	}

	m.registered = true
	return nil
}

func (m *DispatchMetrics) collectListenerCount(_ context.Context, observer metric.Int64Observer) error {
	m.mu.RLock()
	callback := m.listenerCount
	m.mu.RUnlock()

	if callback != nil {
		observer.Observe(callback())
	}
	return nil
}

// SetListenerCountCallback sets the source of the event_listeners gauge
func (m *DispatchMetrics) SetListenerCountCallback(callback func() int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenerCount = callback
}

// IsRegistered returns whether metrics have been registered
func (m *DispatchMetrics) IsRegistered() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}

// recordDispatch records one finished dispatch
func (m *DispatchMetrics) recordDispatch(ctx context.Context, op operation, mode Mode, result outcome, duration time.Duration) {
	if !m.IsRegistered() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("mode", mode.String()),
		attribute.String("outcome", string(result)),
	)
	m.dispatches.Add(ctx, 1, attrs)
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("mode", mode.String()),
	))
}

// recordInvocation records one listener call
func (m *DispatchMetrics) recordInvocation(ctx context.Context, op operation, mode Mode) {
	if !m.IsRegistered() {
		return
	}

	m.invocations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", string(op)),
		attribute.String("mode", mode.String()),
	))
}
