package tracing

import (
	"ImageValidator/internal/config"
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// ShutdownFunc сбрасывает буфер спанов и останавливает экспортёр.
type ShutdownFunc func(ctx context.Context) error

func noopShutdown(context.Context) error { return nil }

// Setup создаёт TracerProvider по конфигу и регистрирует его глобально.
// Трейсинг необязателен: любая ошибка логируется, и возвращается no-op провайдер.
func Setup(ctx context.Context, cfg config.TracingConfig, logger *zap.SugaredLogger) (trace.TracerProvider, ShutdownFunc) {
	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		logger.Warnw("Не удалось настроить трейсинг, продолжаем без него", "exporter", cfg.Exporter, "error", err)
		return noop.NewTracerProvider(), noopShutdown
	}
	if exporter == nil {
		logger.Infow("Трейсинг выключен", "exporter", cfg.Exporter)
		return noop.NewTracerProvider(), noopShutdown
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Infow("Трейсинг включён", "exporter", cfg.Exporter, "service", cfg.ServiceName)
	return tp, tp.Shutdown
}

func newExporter(ctx context.Context, cfg config.TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.Exporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
	case ExporterOTLP:
		return otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}
}
