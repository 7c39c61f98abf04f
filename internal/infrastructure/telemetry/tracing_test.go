package telemetry

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
	"go.uber.org/zap"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestStartSpan(t *testing.T) {
	recorder := installRecorder(t)

	_, span := StartSpan(context.Background(), "snapshot.save", attribute.Int64("snapshot.revision", 3))
	RecordError(span, errors.New("disk full"))
	span.End()

	_, ok := StartSpan(context.Background(), "snapshot.load")
	SetOK(ok)
	ok.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "snapshot.save", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.Int64("snapshot.revision", 3))
	assert.Equal(t, codes.Ok, ended[1].Status().Code)
}

func TestRecordError_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(nil, errors.New("x"))
		SetOK(nil)
	})
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(0).Description())
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestProviders_Disabled(t *testing.T) {
	ctx := context.Background()

	tp, err := NewTracerProvider(ctx, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))

	mp, err := NewMeterProvider(ctx, Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}
