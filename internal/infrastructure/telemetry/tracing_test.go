package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uv/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global provider.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	out := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		out[string(a.Key)] = a.Value
	}
	return out
}

func TestStartSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "media.probe")
	require.NotNil(t, span)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "media.probe", spans[0].Name())
	assert.Equal(t, trace.SpanKindInternal, spans[0].SpanKind())
	assert.Equal(t, telemetry.TracerName, spans[0].InstrumentationScope().Name)
}

func TestStartSpan_WithOptions(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "storage.put",
		telemetry.WithAttribute(telemetry.SpanAttrCategory, "AUDIO"),
		telemetry.WithAttribute(telemetry.SpanAttrByteSize, int64(2048)),
		telemetry.WithSpanKind(trace.SpanKindClient),
	)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, trace.SpanKindClient, spans[0].SpanKind())

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "AUDIO", attrs[telemetry.SpanAttrCategory].AsString())
	assert.Equal(t, int64(2048), attrs[telemetry.SpanAttrByteSize].AsInt64())
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	ctx, parent := telemetry.StartServiceSpan(context.Background(), "upload", "Upload")
	_, child := telemetry.StartServiceSpan(ctx, "storage", "Put")
	child.End()
	parent.End()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "storage.Put", spans[0].Name())
	assert.Equal(t, "upload.Upload", spans[1].Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestSetAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	id := uuid.New()
	_, span := telemetry.StartSpan(context.Background(), "attrs")
	telemetry.SetAttributes(span,
		telemetry.SpanAttrMediaID, id,
		telemetry.SpanAttrSweepScanned, 12,
		"ratio", 0.5,
		"ok", true,
		"tags", []string{"a", "b"},
		42, "ignored",
		"dangling",
	)
	span.End()

	attrs := attrMap(sr.Ended()[0].Attributes())
	assert.Equal(t, id.String(), attrs[telemetry.SpanAttrMediaID].AsString())
	assert.Equal(t, int64(12), attrs[telemetry.SpanAttrSweepScanned].AsInt64())
	assert.Equal(t, 0.5, attrs["ratio"].AsFloat64())
	assert.True(t, attrs["ok"].AsBool())
	assert.Equal(t, []string{"a", "b"}, attrs["tags"].AsStringSlice())
	assert.NotContains(t, attrs, "dangling")
	assert.Len(t, attrs, 5)
}

func TestSetAttributes_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "k", "v")
		telemetry.RecordError(nil, errors.New("boom"))
		telemetry.AddEvent(nil, "event")
	})
}

func TestRecordError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "failing")
	telemetry.RecordError(span, errors.New("disk full"))
	span.End()

	s := sr.Ended()[0]
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "disk full", s.Status().Description)
	require.Len(t, s.Events(), 1)
	assert.Equal(t, "exception", s.Events()[0].Name)
}

func TestRecordError_NilError(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "fine")
	telemetry.RecordError(span, nil)
	span.End()

	assert.Equal(t, codes.Unset, sr.Ended()[0].Status().Code)
	assert.Empty(t, sr.Ended()[0].Events())
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "sweep")
	telemetry.AddEvent(span, "record_freed", telemetry.SpanAttrURL, "/audio/a.mp3")
	span.End()

	events := sr.Ended()[0].Events()
	require.Len(t, events, 1)
	assert.Equal(t, "record_freed", events[0].Name)
	assert.Equal(t, "/audio/a.mp3", attrMap(events[0].Attributes)[telemetry.SpanAttrURL].AsString())
}

func TestGetTraceID(t *testing.T) {
	assert.Empty(t, telemetry.GetTraceID(context.Background()))

	setupTestTracer(t)
	ctx, span := telemetry.StartSpan(context.Background(), "traced")
	defer span.End()

	traceID := telemetry.GetTraceID(ctx)
	assert.Len(t, traceID, 32)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
}
