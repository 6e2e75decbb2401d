// Package component provides component interface definitions
package component

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider defines the interface for components that provide metrics.
// Components can optionally implement this interface to register their
// instruments on a Meter supplied by the host application.
//
// Example implementation:
//
//	func (c *Component) MetricsName() string {
//	    return "event"
//	}
//
//	func (c *Component) RegisterMetrics(meter metric.Meter) error {
//	    counter, err := meter.Int64Counter("event_dispatch_total")
//	    if err != nil {
//	        return err
//	    }
//	    c.dispatchCounter = counter
//	    return nil
//	}
//
//	func (c *Component) IsMetricsEnabled() bool {
//	    return c.config.Metrics.Enabled
//	}
type MetricsProvider interface {
	// MetricsName returns the metrics group name (used for Meter naming).
	// Should be a short, lowercase identifier like "event".
	MetricsName() string

	// RegisterMetrics registers all metrics for this component.
	// Called after component Init; must be safe to call more than once.
	RegisterMetrics(meter metric.Meter) error

	// IsMetricsEnabled returns whether metrics collection is enabled for this component.
	IsMetricsEnabled() bool
}

// MetricsCollector is the central registry a host hands to components.
// telemetry.MetricsRegistry implements it.
type MetricsCollector interface {
	// Register calls provider.RegisterMetrics with a Meter owned by the collector.
	Register(provider MetricsProvider) error

	// GetMeter returns the Meter for a component name.
	GetMeter(name string) metric.Meter

	// GetBaseLabels returns labels shared by every provider (service.name etc.).
	GetBaseLabels() []attribute.KeyValue

	// IsEnabled reports whether Register does anything.
	IsEnabled() bool
}
