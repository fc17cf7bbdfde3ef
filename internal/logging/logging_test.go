package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestJSONHandlerCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, config.LoggingConfig{Level: "info", JSON: true}))
	Component(l, "bridge").Info("dispatched", "method", "generateText")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "bridge", rec["component"])
	assert.Equal(t, "generateText", rec["method"])
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mentora.log")
	l, closer, err := New(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
