package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/PauloHFS/hcportal/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/PauloHFS/hcportal"

type ShutdownFunc func(context.Context) error

// Init configura o TracerProvider global. OTEL_TRACES_EXPORTER escolhe o
// exporter: "otlp" (padrão), "stdout" ou "none".
func Init(ctx context.Context) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	logger := logging.Get()

	exporterName := getEnv("OTEL_TRACES_EXPORTER", "otlp")
	if os.Getenv("OTEL_SDK_DISABLED") == "true" || exporterName == "none" {
		logger.Info("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(getEnv("OTEL_SERVICE_NAME", "hcportal")),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := newExporter(ctx, exporterName)
	if err != nil {
		// Degrada para o provider noop em vez de impedir o boot
		logger.Error("tracing init failed", slog.String("error", err.Error()))
		return func(context.Context) error { return nil }, nil
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler()),
	)
	otel.SetTracerProvider(tp)

	logger.Info("tracing configured",
		slog.String("exporter", exporterName),
		slog.String("protocol", getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")),
	)

	return tp.Shutdown, nil
}

func newExporter(ctx context.Context, name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "otlp":
		switch protocol := getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"); protocol {
		case "grpc":
			return otlptracegrpc.New(ctx)
		case "http/protobuf":
			return otlptracehttp.New(ctx)
		default:
			return nil, fmt.Errorf("unsupported OTLP protocol: %s", protocol)
		}
	default:
		return nil, fmt.Errorf("unsupported traces exporter: %s", name)
	}
}

func sampler() sdktrace.Sampler {
	ratio := 1.0
	if v, err := strconv.ParseFloat(os.Getenv("OTEL_TRACES_SAMPLER_ARG"), 64); err == nil {
		ratio = v
	}

	switch os.Getenv("OTEL_TRACES_SAMPLER") {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio)
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Tracer devolve o tracer da aplicação a partir do provider global.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
