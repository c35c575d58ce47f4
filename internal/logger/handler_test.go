package logger

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"log/slog"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) *structuredHandler {
	return newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: newSyncWriter([]io.Writer{buf}),
		format: format,
	})
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newTestHandler(buf, formatKV)
	ctx := WithRID(Background(), "42:9:7")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "tg")
	LogEvent(ctx, log, slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("cause", "unit"),
	)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	if len(tokens) < 6 {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	expected := []string{"ts=", "level=INFO", "component=tg", "event=test.event", "status=ok", "rid=42:9:7"}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newTestHandler(buf, formatJSON)
	ctx := WithRID(Background(), "11:33:22")

	log := slog.New(handler).With("component", "laundry")
	LogEvent(ctx, log, slog.LevelError, "fetch.fail",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
		slog.String("err_code", "BACKEND_UNAVAILABLE"),
	)

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"laundry"`, `"event":"fetch.fail"`, `"status":"fail"`, `"rid":"11:33:22"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerDurationNormalization(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newTestHandler(buf, formatKV)

	log := slog.New(handler).With("component", "tg")
	LogEvent(Background(), log, slog.LevelInfo, "timing.test",
		slog.Duration("duration", 1500000), // 1.5ms
	)

	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected duration rounded to ms, got %s", line)
	}
}

func TestStructuredHandlerPrunesEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newTestHandler(buf, formatKV)

	log := slog.New(handler).With("component", "tg")
	LogEvent(Background(), log, slog.LevelInfo, "prune.test",
		slog.String("err", ""),
		slog.Int("floor", 8),
	)

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "err=") {
		t.Fatalf("empty attribute should be pruned, got %s", line)
	}
	if !strings.Contains(line, "floor=8") {
		t.Fatalf("expected floor attribute, got %s", line)
	}
}

func TestContextFieldsPropagate(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newTestHandler(buf, formatKV)

	ctx := WithUpdateMeta(Background(), 100, 200, 300)
	ctx = WithHandler(ctx, "start")
	log := slog.New(handler).With("component", "tg")
	LogEvent(ctx, log, slog.LevelInfo, "ctx.test")

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{"update_id=100", "user_id=200", "chat_id=300", "handler=start"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}
