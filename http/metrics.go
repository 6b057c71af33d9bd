package http

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type instruments struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	decodeErrors metric.Int64Counter
	connections  metric.Int64Counter
	pending      metric.Int64ObservableGauge
}

func newInstruments(meter metric.Meter, pool *Pool) (*instruments, error) {
	var (
		inst instruments
		err  error
	)

	inst.requests, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of responses sent, by method, route and status"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	inst.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Time from accepting a connection until the response was written"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	inst.decodeErrors, err = meter.Int64Counter("http.server.decode.errors",
		metric.WithDescription("Requests rejected because they could not be decoded"),
		metric.WithUnit("{request}"))
	if err != nil {
		return nil, err
	}

	inst.connections, err = meter.Int64Counter("http.server.connections",
		metric.WithDescription("Accepted connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}

	inst.pending, err = meter.Int64ObservableGauge("http.server.pool.pending",
		metric.WithDescription("Connections waiting for a free worker"),
		metric.WithUnit("{connection}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(pool.Pending()))
			return nil
		}))
	if err != nil {
		return nil, err
	}

	return &inst, nil
}

func (inst *instruments) record(ctx context.Context, req *Request, route *Route, status Status, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		semconv.HTTPResponseStatusCode(int(status.Code)),
	}
	if req != nil {
		attrs = append(attrs, semconv.HTTPRequestMethodKey.String(req.Method.String()))
	}
	if route != nil {
		attrs = append(attrs, semconv.HTTPRoute(route.Pattern))
	}

	set := metric.WithAttributes(attrs...)
	inst.requests.Add(ctx, 1, set)
	inst.duration.Record(ctx, elapsed.Seconds(), set)
}
