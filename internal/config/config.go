// Package config handles Mentora configuration loading and management.
package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mentora-ai/mentora/internal/errors"
)

// Duration is a time.Duration that reads and writes as a TOML string ("60s").
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".mentora")

	return &Config{
		App: AppConfig{
			Name:         "Mentora",
			WebDir:       filepath.Join(dataDir, "web", "mentora"),
			EntryPoint:   "index.html",
			ListenAddr:   "127.0.0.1:8765",
			NetworkProbe: "1.1.1.1:53",
		},
		Engine: EngineConfig{
			Kind:           string(EngineOllama),
			Host:           "http://127.0.0.1:11434",
			Catalog:        []string{"tinyllama:1.1b", "qwen2.5:0.5b", "llama3.2:1b"},
			RequestTimeout: Duration{5 * time.Minute},
		},
		Backend: BackendConfig{
			Enabled: true,
			BaseURL: "http://localhost:5000",
			Timeout: Duration{60 * time.Second},
		},
		Generation: GenerationConfig{
			ContentBudget: 3000,
			ProgressStep:  10,
			Simulate:      true,
		},
		Paths: PathsConfig{
			DataDir: dataDir,
			LogsDir: filepath.Join(dataDir, "logs"),
			PrefsDB: filepath.Join(dataDir, "prefs.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       filepath.Join(dataDir, "logs", "mentora.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.CodeConfigInvalid, "failed to read config", errors.CategorySystem)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, errors.CodeConfigInvalid, "failed to parse config", errors.CategoryUser)
		}
	}

	applyEnv(cfg)
	cfg = expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath returns the config file location under the user's home.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".mentora", "config.toml")
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}

// Validate checks values that would otherwise fail late at request time.
func (c *Config) Validate() error {
	switch EngineKind(c.Engine.Kind) {
	case EngineOllama, EngineOpenAI, EngineNone:
	default:
		return errors.NewBuilder(errors.CodeConfigInvalid, "unknown engine kind").
			User().
			WithContext("kind", c.Engine.Kind).
			WithSuggestion("Use one of: ollama, openai, none").
			Build()
	}

	if c.Backend.Enabled {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.NewBuilder(errors.CodeConfigInvalid, "backend base_url must be an absolute URL").
				User().
				WithContext("base_url", c.Backend.BaseURL).
				Build()
		}
	}

	if c.Generation.ContentBudget <= 0 {
		c.Generation.ContentBudget = 3000
	}
	if c.Generation.ProgressStep <= 0 || c.Generation.ProgressStep > 100 {
		c.Generation.ProgressStep = 10
	}
	return nil
}

// EntryPath returns the absolute path of the web app entry point.
func (c *Config) EntryPath() string {
	return filepath.Join(c.App.WebDir, c.App.EntryPoint)
}

// applyEnv overrides selected settings from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MENTORA_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("MENTORA_ENGINE_HOST"); v != "" {
		cfg.Engine.Host = v
	}
	if v := os.Getenv("MENTORA_ENGINE_KIND"); v != "" {
		cfg.Engine.Kind = v
	}
	if v := os.Getenv("MENTORA_API_KEY"); v != "" {
		cfg.Engine.APIKey = v
	}
}

// expandPaths expands a leading ~ in paths.
func expandPaths(cfg *Config) *Config {
	cfg.Paths.DataDir = expandHome(cfg.Paths.DataDir)
	cfg.Paths.LogsDir = expandHome(cfg.Paths.LogsDir)
	cfg.Paths.PrefsDB = expandHome(cfg.Paths.PrefsDB)
	cfg.App.WebDir = expandHome(cfg.App.WebDir)
	cfg.Logging.File = expandHome(cfg.Logging.File)
	return cfg
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, p[1:])
}
