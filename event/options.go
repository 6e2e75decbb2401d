package event

import (
	"github.com/KOMKZ/go-yogan-event/logger"
	"go.opentelemetry.io/otel/trace"
)

// DispatcherOption Dispatcher configuration options
type DispatcherOption func(*dispatcher)

// WithPoolSize sets the size of the goroutine pool behind Defer
func WithPoolSize(size int) DispatcherOption {
	return func(d *dispatcher) {
		d.poolSize = size
	}
}

// WithLogger replaces the default "yogan" module logger
func WithLogger(l *logger.CtxZapLogger) DispatcherOption {
	return func(d *dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMetrics records dispatches on m once m is registered
func WithMetrics(m *DispatchMetrics) DispatcherOption {
	return func(d *dispatcher) {
		d.metrics = m
	}
}

// WithTracer sets the tracer for dispatch spans (default: otel global provider)
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithDefaultPriority priority for listeners attached without WithPriority.
// Ignored when WithRegistry is used.
func WithDefaultPriority(priority int) DispatcherOption {
	return func(d *dispatcher) {
		d.defaultPriority = priority
	}
}

// WithRegistry shares an existing registry between dispatchers
func WithRegistry(r *Registry) DispatcherOption {
	return func(d *dispatcher) {
		d.registry = r
	}
}
