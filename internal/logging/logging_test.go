package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNewRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)

	l.Info("bank account saved", slog.String("iban", "DE89370400440532013000"), slog.String("password", "hunter2"), slog.Int64("user_id", 7))

	line := decodeLine(t, &buf)
	assert.Equal(t, redacted, line["iban"])
	assert.Equal(t, redacted, line["password"])
	assert.EqualValues(t, 7, line["user_id"])
	assert.Equal(t, "hcportal", line["service"])
}

func TestNewAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelInfo)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	l.InfoContext(ctx, "request completed")
	line := decodeLine(t, &buf)
	assert.Equal(t, sc.TraceID().String(), line["trace_id"])
	assert.Equal(t, sc.SpanID().String(), line["span_id"])

	buf.Reset()
	l.Info("no span")
	assert.NotContains(t, decodeLine(t, &buf), "trace_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelInfo, parseLevel("loud"))
}

func TestEventAccumulates(t *testing.T) {
	ctx, event := NewEventContext(context.Background())
	AddToEvent(ctx, slog.String("operation", "accept_shift"))
	AddToEvent(ctx, slog.String("outcome", "success"))

	assert.Len(t, event.Attrs(), 2)
	assert.Same(t, event, EventFromContext(ctx))

	// fora de um request nada acontece
	AddToEvent(context.Background(), slog.String("ignored", "x"))
	assert.Nil(t, EventFromContext(context.Background()).Attrs())
}
