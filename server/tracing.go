package server

import (
	"context"
	"fmt"

	"github.com/n9te9/go-graphql-composer/gateway"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// setupTracing installs an OTLP/HTTP tracer provider when tracing is enabled. The
// returned function flushes pending spans.
func setupTracing(ctx context.Context, opt *gateway.GatewayOption) (func(context.Context) error, error) {
	setting := opt.Opentelemetry.TracingSetting
	if !setting.Enable {
		return func(context.Context) error { return nil }, nil
	}

	var exporterOpts []otlptracehttp.Option
	if setting.Endpoint != "" {
		exporterOpts = append(exporterOpts, otlptracehttp.WithEndpoint(setting.Endpoint))
	}
	if setting.Insecure {
		exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", opt.ServiceName))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp.Shutdown, nil
}
