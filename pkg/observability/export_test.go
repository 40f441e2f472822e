package observability

import (
	"context"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// BuildResource exposes buildResource for testing.
func BuildResource(cfg Config) (*resource.Resource, error) {
	return buildResource(cfg)
}

// SampledRootSpan starts one root span on a provider configured like the OTLP
// one and reports whether it was exported.
func SampledRootSpan(cfg Config) bool {
	exporter := tracetest.NewInMemoryExporter()
	opts := append(tracerOptions(cfg, resource.Empty()), sdktrace.WithSyncer(exporter))
	tp := sdktrace.NewTracerProvider(opts...)

	_, span := tp.Tracer("test").Start(context.Background(), "root")
	span.End()

	// Shutdown clears the exporter.
	spans := exporter.GetSpans()

	shutdownErr := tp.Shutdown(context.Background())
	if shutdownErr != nil {
		return false
	}

	return len(spans) > 0
}
