// Package telemetry wires the OpenTelemetry SDK for the server: traces,
// metrics and logs go to an OTLP collector over gRPC when enabled, and
// metrics are always exposed on a Prometheus registry for scraping.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type Config struct {
	// Enabled turns on OTLP export of traces, metrics and logs.
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Endpoint is the host:port of the OTLP gRPC collector.
	Endpoint string
	Insecure bool
}

// Telemetry owns the providers created by Setup.
type Telemetry struct {
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider

	// LoggerProvider is nil unless OTLP export is enabled.
	LoggerProvider log.LoggerProvider

	registry  *prometheus.Registry
	shutdowns []func(context.Context) error
}

// Setup builds the providers and installs them as the otel globals. Call
// Shutdown to flush and release them.
func Setup(ctx context.Context, cfg Config) (_ *Telemetry, err error) {
	tel := &Telemetry{registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			err = errors.Join(err, tel.Shutdown(context.Background()))
		}
	}()

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	tel.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promReader, err := otelprom.New(otelprom.WithRegisterer(tel.registry))
	if err != nil {
		return nil, fmt.Errorf("telemetry: prometheus exporter: %w", err)
	}
	meterOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promReader),
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		tel.TracerProvider = noop.NewTracerProvider()
	} else {
		tracerProvider, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		tel.shutdowns = append(tel.shutdowns, tracerProvider.Shutdown)
		tel.TracerProvider = tracerProvider

		metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions(cfg)...)
		if err != nil {
			return nil, fmt.Errorf("telemetry: otlp metric exporter: %w", err)
		}
		meterOpts = append(meterOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))

		loggerProvider, err := newLoggerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		tel.shutdowns = append(tel.shutdowns, loggerProvider.Shutdown)
		tel.LoggerProvider = loggerProvider
		global.SetLoggerProvider(loggerProvider)
	}

	meterProvider := sdkmetric.NewMeterProvider(meterOpts...)
	tel.shutdowns = append(tel.shutdowns, meterProvider.Shutdown)
	tel.MeterProvider = meterProvider

	otel.SetTracerProvider(tel.TracerProvider)
	otel.SetMeterProvider(tel.MeterProvider)

	return tel, nil
}

// Shutdown flushes and stops every provider. It is safe to call more than once.
func (tel *Telemetry) Shutdown(ctx context.Context) error {
	var err error
	for _, fn := range tel.shutdowns {
		err = errors.Join(err, fn(ctx))
	}
	tel.shutdowns = nil
	return err
}

// Registry returns the Prometheus registry that receives the otel metrics.
func (tel *Telemetry) Registry() *prometheus.Registry {
	return tel.registry
}

func newTracerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func metricOptions(cfg Config) []otlpmetricgrpc.Option {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	return opts
}

func newLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}

	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("telemetry: otlp log exporter: %w", err)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}
