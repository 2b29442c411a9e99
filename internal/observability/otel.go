// Package observability wires OpenTelemetry tracing for the API process. HTTP
// spans come from otelgin, database spans from the GORM tracing plugin and
// service spans from otel.Tracer in each service; all of them flow into the
// provider installed here.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"google.golang.org/grpc/credentials"

	"github.com/LulDrako/playmarket-docker/internal/config"
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (sdktrace.SpanExporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version, env string) (*resource.Resource, error) {
		return resource.New(
			ctx,
			resource.WithAttributes(
				semconv.ServiceName(serviceName),
				semconv.ServiceVersion(version),
				semconv.DeploymentEnvironment(env),
			),
		)
	}
)

// SetupOTel installs the global tracer provider and W3C propagators and
// returns the provider's shutdown function. When tracing is disabled it
// installs nothing and returns a no-op shutdown.
func SetupOTel(ctx context.Context, cfg config.Config) (func(context.Context) error, error) {
	oc := cfg.OTEL
	if !oc.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(oc.Endpoint),
	}
	if oc.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}

	res, err := newServiceResourceFn(ctx, oc.ServiceName, cfg.Version, cfg.Env)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sampler(oc.SampleRatio)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// sampler honours the parent decision and samples root spans by ratio.
func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case ratio <= 0:
		return sdktrace.ParentBased(sdktrace.NeverSample())
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
