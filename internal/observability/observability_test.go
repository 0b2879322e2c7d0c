package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"alcyxob/fitness-content/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")
	logger.Info("dropped")
	logger.Warn("kept", "owner_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, float64(7), line["owner_id"])
}

func TestInitTracingWithoutEndpoint(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitTracing(ctx, config.TelemetryConfig{ServiceName: "test"})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, shutdown(ctx))
}
