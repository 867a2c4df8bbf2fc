package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandler_ModulePrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewConsoleHandler(&buf, nil)).With(
		slog.String("service", "tasklet"),
		slog.String("module", "todo"),
		slog.String("component", "service"),
	)

	logger.Info("Todo created", "id", 7)

	out := buf.String()
	assert.Contains(t, out, "[todo/service] Todo created")
	assert.Contains(t, out, "  id=7\n")
	assert.NotContains(t, out, "service=tasklet")
	assert.NotContains(t, out, "module=")
}

func TestConsoleHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelWarn)
	logger := slog.New(NewConsoleHandler(&buf, &slog.HandlerOptions{Level: lv}))

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	// 运行时调低级别
	lv.Set(slog.LevelDebug)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONHandler(&buf, nil)).With("request_id", "abc")

	logger.Error("Failed to update todo", "error", errors.New("db down"), "msg", "shadowed")

	var obj map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &obj))
	assert.Equal(t, "ERROR", obj["level"])
	assert.Equal(t, "Failed to update todo", obj["msg"])
	assert.Equal(t, "db down", obj["error"])
	assert.Equal(t, "abc", obj["request_id"])
	assert.NotEmpty(t, obj["time"])
}

func TestJSONHandler_OneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewJSONHandler(&buf, nil))

	logger.Info("first")
	logger.Info("second")
	logger.Debug("filtered")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}
