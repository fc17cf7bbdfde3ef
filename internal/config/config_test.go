package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentora-ai/mentora/internal/errors"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("MENTORA_BACKEND_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Engine.Kind, cfg.Engine.Kind)
	assert.Equal(t, 60*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, 3000, cfg.Generation.ContentBudget)
	assert.True(t, cfg.Generation.Simulate)
}

func TestLoadOverridesAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[engine]
kind = "openai"
host = "http://127.0.0.1:1234"
request_timeout = "30s"

[backend]
enabled = true
base_url = "http://example.test:5000"
timeout = "15s"

[generation]
content_budget = 1200
progress_step = 25

[paths]
prefs_db = "~/mentora-test/prefs.db"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("MENTORA_BACKEND_URL", "http://override.test:9000")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Engine.Kind)
	assert.Equal(t, 30*time.Second, cfg.Engine.RequestTimeout.Duration)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout.Duration)
	assert.Equal(t, "http://override.test:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 1200, cfg.Generation.ContentBudget)
	assert.Equal(t, 25, cfg.Generation.ProgressStep)

	home, _ := os.UserHomeDir()
	assert.Equal(t, filepath.Join(home, "mentora-test", "prefs.db"), cfg.Paths.PrefsDB)
}

func TestValidateRejectsUnknownEngine(t *testing.T) {
	cfg := Default()
	cfg.Engine.Kind = "tensorflow"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestValidateRejectsRelativeBackendURL(t *testing.T) {
	cfg := Default()
	cfg.Backend.BaseURL = "localhost"
	require.Error(t, cfg.Validate())

	cfg.Backend.Enabled = false
	require.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("MENTORA_BACKEND_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Engine.Catalog = []string{"phi3:mini"}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"phi3:mini"}, loaded.Engine.Catalog)
	assert.Equal(t, cfg.Backend.Timeout, loaded.Backend.Timeout)
}
