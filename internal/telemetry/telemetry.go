// Package telemetry configures OpenTelemetry tracing for the cleanup Lambda.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName is the tracer name used by this module.
const InstrumentationName = "github.com/dwsmith1983/codedeploy-cleanup"

// Provider wraps a tracer provider together with its flush and shutdown hooks.
// Lambda freezes the process between invocations, so spans are flushed at
// the end of every invocation rather than left to the batcher.
type Provider struct {
	tp       trace.TracerProvider
	flush    func(context.Context) error
	shutdown func(context.Context) error
}

// New returns an OTLP/gRPC backed provider when endpoint is set, and a no-op
// provider otherwise. The provider is also installed as the global one.
func New(ctx context.Context, serviceName, endpoint string) (*Provider, error) {
	if endpoint == "" {
		return Noop(), nil
	}

	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpointURL(endpoint))
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(tp)
	return FromSDK(tp), nil
}

// FromSDK wraps an SDK tracer provider.
func FromSDK(tp *sdktrace.TracerProvider) *Provider {
	return &Provider{tp: tp, flush: tp.ForceFlush, shutdown: tp.Shutdown}
}

// Noop returns a provider that records nothing.
func Noop() *Provider {
	nop := func(context.Context) error { return nil }
	return &Provider{tp: noop.NewTracerProvider(), flush: nop, shutdown: nop}
}

// Tracer returns the module tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(InstrumentationName)
}

// Flush exports any buffered spans.
func (p *Provider) Flush(ctx context.Context) error {
	return p.flush(ctx)
}

// Shutdown flushes and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// End records err on the span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
