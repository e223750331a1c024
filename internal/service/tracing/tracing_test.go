package tracing

import (
	"ImageValidator/internal/config"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core).Sugar(), logs
}

func TestSetup_NoneIsNoop(t *testing.T) {
	logger, _ := observedLogger()

	tp, shutdown := Setup(context.Background(), config.TracingConfig{Exporter: ExporterNone}, logger)
	assert.IsType(t, noop.TracerProvider{}, tp)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_UnknownExporterFallsBackToNoop(t *testing.T) {
	logger, logs := observedLogger()

	tp, shutdown := Setup(context.Background(), config.TracingConfig{Exporter: "jaeger"}, logger)
	assert.IsType(t, noop.TracerProvider{}, tp)
	require.NoError(t, shutdown(context.Background()))

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0].ContextMap()["error"], "jaeger")
}

func TestSetup_Stdout(t *testing.T) {
	logger, _ := observedLogger()

	tp, shutdown := Setup(context.Background(), config.TracingConfig{Exporter: ExporterStdout, ServiceName: "test"}, logger)
	_, isNoop := tp.(noop.TracerProvider)
	assert.False(t, isNoop)

	_, span := tp.Tracer("test").Start(context.Background(), "span")
	span.End()
	require.NoError(t, shutdown(context.Background()))
}
