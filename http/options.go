package http

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Option func(*serverConfig)

type serverConfig struct {
	name           string
	workers        int
	readTimeout    time.Duration
	writeTimeout   time.Duration
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	notFound       Handler
}

// WithName sets the instrumentation scope name used for spans and metrics.
func WithName(name string) Option {
	return func(cfg *serverConfig) {
		cfg.name = name
	}
}

func WithWorkers(n int) Option {
	return func(cfg *serverConfig) {
		cfg.workers = n
	}
}

// WithReadTimeout bounds the time between accepting a connection and having
// read the complete request. Zero disables the deadline.
func WithReadTimeout(d time.Duration) Option {
	return func(cfg *serverConfig) {
		cfg.readTimeout = d
	}
}

// WithWriteTimeout bounds writing the response. The default of zero leaves
// writes without a deadline.
func WithWriteTimeout(d time.Duration) Option {
	return func(cfg *serverConfig) {
		cfg.writeTimeout = d
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *serverConfig) {
		cfg.logger = logger
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(cfg *serverConfig) {
		cfg.tracerProvider = tp
	}
}

func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(cfg *serverConfig) {
		cfg.meterProvider = mp
	}
}

// WithNotFoundHandler replaces NotFoundHandler for requests that match no
// route. It runs outside the middleware chain.
func WithNotFoundHandler(handler Handler) Option {
	return func(cfg *serverConfig) {
		cfg.notFound = handler
	}
}
