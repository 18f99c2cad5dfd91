package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestHandler_MasksConfiguredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(&Config{
		ServiceName: "aegis",
		MaskFields:  []string{" Code ", "", "secret"},
		LogOutput:   buf,
	}, nil))

	logger.Info("submit", "code", "123456", "body", `{"userId":"u1","code":"654321"}`, "user_id", "u1")

	line := decodeLine(t, buf)
	assert.Equal(t, "***", line["code"])
	assert.JSONEq(t, `{"userId":"u1","code":"***"}`, line["body"].(string))
	assert.Equal(t, "u1", line["user_id"])
	assert.Equal(t, "aegis", line["service"])
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
}

func TestHandler_MasksNestedValues(t *testing.T) {
	tests := []struct {
		name string
		log  func(*slog.Logger)
		key  string
		want any
	}{
		{
			name: "Map",
			log:  func(l *slog.Logger) { l.Info("m", "resp", map[string]any{"qrCodeBase64": "aGVsbG8=", "ok": true}) },
			key:  "resp",
			want: map[string]any{"qrCodeBase64": "***", "ok": true},
		},
		{
			name: "StringMap",
			log:  func(l *slog.Logger) { l.Info("m", "headers", map[string]string{"Code": "1", "X": "2"}) },
			key:  "headers",
			want: map[string]any{"Code": "***", "X": "2"},
		},
		{
			name: "Bytes",
			log:  func(l *slog.Logger) { l.Info("m", "raw", []byte(`[{"code":"123456"}]`)) },
			key:  "raw",
			want: `[{"code":"***"}]`,
		},
		{
			name: "Group",
			log:  func(l *slog.Logger) { l.Info("m", slog.Group("req", slog.String("code", "1"), slog.Int("n", 2))) },
			key:  "req",
			want: map[string]any{"code": "***", "n": float64(2)},
		},
		{
			name: "WithAttrs",
			log:  func(l *slog.Logger) { l.With("code", "123456").Info("m") },
			key:  "code",
			want: "***",
		},
		{
			name: "PlainStringUntouched",
			log:  func(l *slog.Logger) { l.Info("m", "note", "{not json") },
			key:  "note",
			want: "{not json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.log(slog.New(newHandler(&Config{MaskFields: []string{"code", "qrCodeBase64"}, LogOutput: buf}, nil)))

			assert.Equal(t, tt.want, decodeLine(t, buf)[tt.key])
		})
	}
}

func TestHandler_SourceIsModuleRelative(t *testing.T) {
	buf := &bytes.Buffer{}
	slog.New(newHandler(&Config{LogOutput: buf}, nil)).Info("hello")

	assert.Contains(t, decodeLine(t, buf)["file"], "internal/pkg/instrument/logging_test.go:")
}

func TestFanout(t *testing.T) {
	info, warn := &bytes.Buffer{}, &bytes.Buffer{}
	f := fanout{
		slog.NewJSONHandler(info, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	logger := slog.New(f).With("k", "v")

	logger.Info("one")
	assert.Contains(t, info.String(), `"k":"v"`)
	assert.Zero(t, warn.Len())

	logger.Warn("two")
	assert.Contains(t, warn.String(), `"msg":"two"`)
	assert.False(t, f.Enabled(context.Background(), slog.LevelDebug))
}

func TestHandler_AddsCorrelationID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(&Config{ServiceName: "aegis", LogOutput: buf}, nil))

	ctx := SetCorrelationID(context.Background(), "cid-1")
	logger.InfoContext(ctx, "hello")

	assert.Equal(t, "cid-1", decodeLine(t, buf)["_cID"])
}

func TestHandler_RespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler(&Config{LogLevel: "warn", LogOutput: buf}, nil))

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Equal(t, "kept", decodeLine(t, buf)["msg"])
}

func TestGetCorrelationID_Empty(t *testing.T) {
	assert.Empty(t, GetCorrelationID(context.Background()))
}
