package otel

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestLogger(buf *bytes.Buffer) *Logger {
	logger := NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), buf)
	logger.now = func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	return logger
}

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e))
		entries = append(entries, e)
	}
	return entries
}

func TestLogger_Log(t *testing.T) {
	tests := []struct {
		name    string
		log     func(*Logger)
		level   string
		message string
		fields  map[string]interface{}
	}{
		{
			name:    "Infoレベルのログ",
			log:     func(l *Logger) { l.Info(context.Background(), "fetched", map[string]interface{}{"count": 2}) },
			level:   "INFO",
			message: "fetched",
			fields:  map[string]interface{}{"count": float64(2)},
		},
		{
			name:    "Debugレベルのログ",
			log:     func(l *Logger) { l.Debug(context.Background(), "debug message", nil) },
			level:   "DEBUG",
			message: "debug message",
		},
		{
			name:    "Warnレベルのログ",
			log:     func(l *Logger) { l.Warn(context.Background(), "usedAt missing", map[string]interface{}{"gifticon_id": "1"}) },
			level:   "WARN",
			message: "usedAt missing",
			fields:  map[string]interface{}{"gifticon_id": "1"},
		},
		{
			name:    "Errorレベルのログはerrorフィールドを付与",
			log:     func(l *Logger) { l.Error(context.Background(), "failed", assert.AnError, nil) },
			level:   "ERROR",
			message: "failed",
			fields:  map[string]interface{}{"error": assert.AnError.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(newTestLogger(&buf))

			entries := decodeEntries(t, &buf)
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			assert.Equal(t, tt.message, entries[0].Message)
			assert.Equal(t, tt.fields, entries[0].Fields)
			assert.Equal(t, "2026-10-15T09:00:00Z", entries[0].Timestamp)
		})
	}
}

func TestLogger_ErrorDoesNotMutateFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)

	fields := map[string]interface{}{"key": "value"}
	logger.Error(context.Background(), "failed", assert.AnError, fields)

	assert.Equal(t, map[string]interface{}{"key": "value"}, fields)
}

func TestLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.SetLevel(LogLevelWarn)

	ctx := context.Background()
	logger.Debug(ctx, "debug", nil)
	logger.Info(ctx, "info", nil)
	logger.Warn(ctx, "warn", nil)
	logger.Error(ctx, "error", nil, nil)

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "WARN", entries[0].Level)
	assert.Equal(t, "ERROR", entries[1].Level)
}

func TestLogger_LogWithTraceContext(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "test-span")
	defer span.End()

	var buf bytes.Buffer
	newTestLogger(&buf).Info(ctx, "with trace", nil)

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].TraceID)
	assert.Equal(t, span.SpanContext().SpanID().String(), entries[0].SpanID)
}

func TestLogger_LogWithoutTraceContext(t *testing.T) {
	var buf bytes.Buffer
	newTestLogger(&buf).Info(context.Background(), "no trace", nil)

	entries := decodeEntries(t, &buf)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].TraceID)
	assert.Empty(t, entries[0].SpanID)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"DEBUG", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"WARN", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"verbose", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.input))
		})
	}
}
