package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

func TestNewRequestID(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()
	if len(a) != 8 || len(b) != 8 {
		t.Fatalf("expected 8-character ids, got %q and %q", a, b)
	}
	if a == b {
		t.Error("expected distinct request ids")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc123")
	if got := RequestIDFromContext(ctx); got != "abc123" {
		t.Errorf("expected abc123, got %q", got)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}

func TestForRequestAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = prev }()

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(WithRequestID(context.Background(), "req-1"), sc)

	l := ForRequest(ctx)
	l.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"requestId":"req-1"`) {
		t.Errorf("missing request id in %s", out)
	}
	if !strings.Contains(out, `"traceId":"0102030405060708090a0b0c0d0e0f10"`) {
		t.Errorf("missing trace id in %s", out)
	}
}

func TestLogBodyTruncates(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)

	LogRequest(l, []byte(strings.Repeat("x", 1500)))
	if !strings.Contains(buf.String(), `"truncated":true`) {
		t.Errorf("expected truncated marker, got %s", buf.String())
	}

	buf.Reset()
	LogResponse(l, nil)
	if buf.Len() != 0 {
		t.Errorf("empty body should not log, got %s", buf.String())
	}
}
