package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/stagehand/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor and reports finished spans
// through the logger. It backs the --trace flag.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// OnStart does nothing; spans are reported when they end.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, its attributes and its duration.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}

	parts := []string{s.Name()}
	for _, attr := range s.Attributes() {
		parts = append(parts, string(attr.Key)+"="+attr.Value.Emit())
	}
	msg := fmt.Sprintf("%s (%s)", strings.Join(parts, " "), s.EndTime().Sub(s.StartTime()).Round(time.Microsecond))

	if s.Status().Code == codes.Error {
		b.logger.Warn(msg + ": " + s.Status().Description)
		return
	}
	b.logger.Info(msg)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

// Install registers a global tracer provider that forwards finished spans to
// the bridge. The returned function shuts the provider down.
func Install(bridge *Bridge) func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(bridge))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
