package telemetry

import (
	"context"
	"fmt"
	"io"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newTracerProvider 创建 TracerProvider
func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource, w io.Writer) (*sdktrace.TracerProvider, error) {
	exporter, err := newSpanExporter(ctx, cfg.Exporter, w)
	if err != nil {
		return nil, fmt.Errorf("create span exporter failed: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.Sampler)),
	}

	if cfg.Batch.Enabled {
		opts = append(opts, sdktrace.WithBatcher(exporter,
			sdktrace.WithMaxQueueSize(cfg.Batch.MaxQueueSize),
			sdktrace.WithMaxExportBatchSize(cfg.Batch.MaxExportBatchSize),
			sdktrace.WithBatchTimeout(cfg.Batch.ScheduleDelay),
			sdktrace.WithExportTimeout(cfg.Batch.ExportTimeout),
		))
	} else {
		// 同步导出，仅用于调试
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}

	return sdktrace.NewTracerProvider(opts...), nil
}

func newSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "trace_id_ratio":
		return sdktrace.TraceIDRatioBased(cfg.Ratio)
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// newMeterProvider 创建 MeterProvider；noop 导出时不挂 reader
func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource, w io.Writer) (*sdkmetric.MeterProvider, error) {
	exporter, err := newMetricExporter(ctx, cfg.Exporter, w)
	if err != nil {
		return nil, fmt.Errorf("create metrics exporter failed: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if exporter != nil {
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Metrics.ExportInterval),
			sdkmetric.WithTimeout(cfg.Metrics.ExportTimeout),
		)))
	}

	return sdkmetric.NewMeterProvider(opts...), nil
}
