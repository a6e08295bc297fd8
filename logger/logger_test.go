package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, "svc", buf)
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("Format = %q, want console", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("Output = %q, want stdout", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("Timestamp should default to true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid json", Config{Level: "debug", Format: "json"}, false},
		{"valid pretty", Config{Level: "warn", Format: "pretty"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerWritesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf, "info")

	log.WithComponent("dispatch").Info("mounted", map[string]interface{}{"path": "items/:id"})

	entry := lastEntry(t, &buf)
	if entry["service"] != "svc" {
		t.Errorf("service = %v", entry["service"])
	}
	if entry[FieldComponent] != "dispatch" {
		t.Errorf("component = %v", entry[FieldComponent])
	}
	if entry["path"] != "items/:id" {
		t.Errorf("path = %v", entry["path"])
	}
	if entry["message"] != "mounted" {
		t.Errorf("message = %v", entry["message"])
	}
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf, "warn")

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	log.Warn("shown")
	if lastEntry(t, &buf)["level"] != "warn" {
		t.Errorf("expected a warn entry, got %q", buf.String())
	}
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf, "info")

	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = ContextWithRequestID(ctx, "req-1")

	log.WithContext(ctx).Info("handled")

	entry := lastEntry(t, &buf)
	if entry[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v", entry[FieldRequestID])
	}
	if entry[FieldTraceID] != traceID.String() {
		t.Errorf("trace_id = %v", entry[FieldTraceID])
	}
	if entry[FieldSpanID] != spanID.String() {
		t.Errorf("span_id = %v", entry[FieldSpanID])
	}
}

func TestLoggerWithContextEmpty(t *testing.T) {
	log := NewDefault("svc")
	if got := log.WithContext(context.Background()); got != log {
		t.Error("WithContext without values should return the same logger")
	}
}

func TestLoggerWithError(t *testing.T) {
	var buf bytes.Buffer
	log := jsonLogger(&buf, "info")

	log.WithError(errors.New("boom")).Error("failed")

	if lastEntry(t, &buf)["error"] != "boom" {
		t.Errorf("expected error field, got %q", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "svc", &buf)

	log.Info("hello")

	out := buf.String()
	if !strings.Contains(out, "[INF]") || !strings.Contains(out, "hello") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Error("empty context should carry no request ID")
	}
	if _, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "")); ok {
		t.Error("empty request ID should be reported as absent")
	}
	id, ok := RequestIDFromContext(ContextWithRequestID(context.Background(), "abc"))
	if !ok || id != "abc" {
		t.Errorf("RequestIDFromContext = %q, %v", id, ok)
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", 3, "skipped", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("Fields = %v", f)
	}

	ef := ErrorFields("resolve", errors.New("boom"))
	if ef[FieldOperation] != "resolve" || ef[FieldError] != "boom" {
		t.Errorf("ErrorFields = %v", ef)
	}

	if nf := ErrorFields("resolve", nil); len(nf) != 1 {
		t.Errorf("ErrorFields with nil error = %v", nf)
	}

	df := DurationFields("bind", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("DurationFields = %v", df)
	}
}

func TestGlobalLogger(t *testing.T) {
	prev := globalLogger
	defer func() { globalLogger = prev }()

	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("GetGlobalLogger should create a default logger")
	}

	var buf bytes.Buffer
	SetGlobalLogger(jsonLogger(&buf, "info"))
	Info("global")
	if lastEntry(t, &buf)["message"] != "global" {
		t.Errorf("global logger not used: %q", buf.String())
	}
}
