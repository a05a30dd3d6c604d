package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/stagehand/internal/adapters/telemetry"
	"go.trai.ch/stagehand/internal/core/ports"
)

func setupRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestOTelTracer_StartWithAttributes(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	_, span := tracer.Start(context.Background(), "expand",
		ports.WithAttribute("path", "/ws/a.yaml"),
		ports.WithAttribute("depth", 2),
	)
	span.SetAttribute("nodes", int64(6))
	span.SetAttribute("parallel", true)
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("sources", []string{"/ws/a.yaml", "/ws/b.yaml"})
	span.SetAttribute("other", struct{ N int }{N: 1})
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "expand", ended[0].Name())

	got := attrs(ended[0])
	assert.Equal(t, "/ws/a.yaml", got["path"].AsString())
	assert.Equal(t, int64(2), got["depth"].AsInt64())
	assert.Equal(t, int64(6), got["nodes"].AsInt64())
	assert.True(t, got["parallel"].AsBool())
	assert.InDelta(t, 0.5, got["ratio"].AsFloat64(), 0)
	assert.Equal(t, []string{"/ws/a.yaml", "/ws/b.yaml"}, got["sources"].AsStringSlice())
	assert.Equal(t, "{1}", got["other"].AsString())
}

func TestOTelTracer_NestedSpans(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	ctx, parent := tracer.Start(context.Background(), "assemble")
	_, child := tracer.Start(ctx, "expand")
	child.End()
	parent.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestOTelSpan_RecordError(t *testing.T) {
	sr := setupRecorder(t)
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)

	_, span := tracer.Start(context.Background(), "assemble")
	span.RecordError(errors.New("cyclic include"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "cyclic include", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}
