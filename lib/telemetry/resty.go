package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type restyInstruments struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

type startedAtKey struct{}

// InstrumentResty opens a span around every request of client and records
// request counts and durations. Headers and bodies are left out since they
// carry session cookies and passwords.
func InstrumentResty(client *resty.Client, name string) {
	meter := otel.Meter(name)
	requests, err := meter.Int64Counter(
		"http.client.requests",
		metric.WithDescription("Requests sent to the portal."),
	)
	if err != nil {
		slog.Warn("failed to create request counter", "err", err)
	}
	duration, err := meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Time until the response headers arrived."),
	)
	if err != nil {
		slog.Warn("failed to create request duration histogram", "err", err)
	}

	i := restyInstruments{
		tracer:   otel.Tracer(name),
		requests: requests,
		duration: duration,
	}
	client.OnBeforeRequest(i.onBeforeRequest)
	// success hooks also fire for responses resty leaves unparsed
	client.OnSuccess(i.onSuccess)
	client.OnError(i.onError)
}

func (i restyInstruments) onBeforeRequest(_ *resty.Client, req *resty.Request) error {
	ctx, span := i.tracer.Start(req.Context(), fmt.Sprintf("http %s", req.Method))
	span.SetAttributes(
		semconv.HTTPRequestMethodKey.String(req.Method),
		semconv.URLFull(req.URL),
	)
	ctx = context.WithValue(ctx, startedAtKey{}, time.Now())
	req.SetContext(ctx)
	return nil
}

func (i restyInstruments) record(ctx context.Context, method string, status int) {
	attrs := metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		semconv.HTTPResponseStatusCode(status),
	)
	if i.requests != nil {
		i.requests.Add(ctx, 1, attrs)
	}
	startedAt, ok := ctx.Value(startedAtKey{}).(time.Time)
	if ok && i.duration != nil {
		i.duration.Record(ctx, time.Since(startedAt).Seconds(), attrs)
	}
}

func (i restyInstruments) onSuccess(_ *resty.Client, res *resty.Response) {
	ctx := res.Request.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.SetAttributes(semconv.HTTPResponseStatusCode(res.StatusCode()))
	if res.StatusCode() >= 500 {
		span.SetStatus(codes.Error, res.Status())
	}
	i.record(ctx, res.Request.Method, res.StatusCode())
}

func (i restyInstruments) onError(req *resty.Request, err error) {
	ctx := req.Context()
	span := trace.SpanFromContext(ctx)
	defer span.End()

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	i.record(ctx, req.Method, 0)
}
