package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/stagehand/internal/adapters/telemetry"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func endedSpan(t *testing.T, fail bool) sdktrace.ReadOnlySpan {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := tp.Tracer("test").Start(context.Background(), "expand")
	span.SetAttributes(attribute.String("path", "/ws/a.yaml"))
	if fail {
		span.SetStatus(codes.Error, "cyclic include")
	}
	span.End()

	ro, ok := span.(sdktrace.ReadOnlySpan)
	require.True(t, ok)
	return ro
}

func TestBridge_OnEnd(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	bridge := telemetry.NewBridge(logger)

	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "expand path=/ws/a.yaml (")
	})

	bridge.OnEnd(endedSpan(t, false))
}

func TestBridge_OnEndWithError(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	bridge := telemetry.NewBridge(logger)

	logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) {
		assert.Contains(t, msg, "expand path=/ws/a.yaml")
		assert.Contains(t, msg, ": cyclic include")
	})

	bridge.OnEnd(endedSpan(t, true))
}

func TestBridge_NilLogger(t *testing.T) {
	bridge := telemetry.NewBridge(nil)
	bridge.OnEnd(endedSpan(t, false))
	require.NoError(t, bridge.ForceFlush(context.Background()))
	require.NoError(t, bridge.Shutdown(context.Background()))
}

func TestInstall(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).Times(2)

	shutdown := telemetry.Install(telemetry.NewBridge(logger))
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	ctx, parent := tracer.Start(context.Background(), "assemble", ports.WithAttribute("root", "/ws/a.yaml"))
	_, child := tracer.Start(ctx, "expand")
	child.End()
	parent.End()

	require.NoError(t, shutdown(context.Background()))
}
