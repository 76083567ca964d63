// internal/logging/logger_test.go
package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerReturnsNoopByDefault(t *testing.T) {
	SetDefaultLogger(GetNoopLogger())
	logger := GetLogger("test")
	require.NotNil(t, logger)
	logger.Info("this should not panic")
}

func TestSlogLoggerStructuredOutput(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	SetDefaultLogger(NewSlogLogger(slog.New(handler)))
	t.Cleanup(func() { SetDefaultLogger(GetNoopLogger()) })

	logger := GetLogger("test_component")
	logger.Info("test message", "key1", "value1", "key2", 123)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "test_component", entry["component"])
	assert.Equal(t, "value1", entry["key1"])
	assert.InDelta(t, 123, entry["key2"], 0)
}

func TestWithFieldChains(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, nil)
	logger := NewSlogLogger(slog.New(handler)).WithField("a", 1).WithField("b", 2)

	logger.Warn("chained")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.InDelta(t, 1, entry["a"], 0)
	assert.InDelta(t, 2, entry["b"], 0)
}
