// Package observability sets up OpenTelemetry tracing for the search server.
// Spans are exported over OTLP/gRPC; the service resource carries the engine
// settings so traces from differently tuned instances can be told apart.
package observability

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc/credentials"

	"github.com/tbourn/go-search-server/internal/config"
)

// Test seams.
var (
	newOTLPClient = otlptracegrpc.NewClient

	newOTLPExporterFn = func(ctx context.Context, client otlptrace.Client) (*otlptrace.Exporter, error) {
		return otlptrace.New(ctx, client)
	}

	newServiceResourceFn = func(ctx context.Context, serviceName, version string, extra ...attribute.KeyValue) (*resource.Resource, error) {
		attrs := append([]attribute.KeyValue{
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		}, extra...)
		return resource.New(ctx, resource.WithAttributes(attrs...))
	}
)

// untracedPrefixes are polled by health checks and scrapers; tracing them only adds
// noise next to search and ingestion spans.
var untracedPrefixes = []string{"/health", "/metrics", "/swagger/"}

// EngineAttributes describes the engine configuration as resource attributes.
func EngineAttributes(cfg config.SearchConfig) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int("search.max_results", cfg.MaxResults),
		attribute.Int("search.max_content_runes", cfg.MaxContentRunes),
		attribute.Bool("search.stop_words_configured", cfg.StopWords != ""),
		attribute.Bool("search.seeded", cfg.SeedPath != ""),
	}
}

// TraceFilter reports whether an HTTP request should be traced. It plugs into
// otelgin.WithFilter.
func TraceFilter(r *http.Request) bool {
	for _, p := range untracedPrefixes {
		if strings.HasPrefix(r.URL.Path, p) {
			return false
		}
	}
	return true
}

// SetupOTel installs a global tracer provider and W3C propagators and returns
// its shutdown function. attrs are added to the service resource. Globals are
// left untouched when tracing is disabled or setup fails.
func SetupOTel(ctx context.Context, cfg config.OTELConfig, version string, attrs ...attribute.KeyValue) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	} else {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")))
	}

	exp, err := newOTLPExporterFn(ctx, newOTLPClient(opts...))
	if err != nil {
		return nil, err
	}
	res, err := newServiceResourceFn(ctx, cfg.ServiceName, version, attrs...)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}
