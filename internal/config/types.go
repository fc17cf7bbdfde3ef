// Package config provides configuration types for Mentora.
package config

// Config represents the main Mentora configuration.
type Config struct {
	App        AppConfig        `toml:"app"`
	Engine     EngineConfig     `toml:"engine"`
	Backend    BackendConfig    `toml:"backend"`
	Generation GenerationConfig `toml:"generation"`
	Paths      PathsConfig      `toml:"paths"`
	Logging    LoggingConfig    `toml:"logging"`
}

// AppConfig contains host-level settings.
type AppConfig struct {
	Name       string `toml:"name"`
	WebDir     string `toml:"web_dir"`     // directory holding the embedded web app
	EntryPoint string `toml:"entry_point"` // file loaded at startup, relative to WebDir
	ListenAddr string `toml:"listen_addr"`

	// NetworkProbe is dialed to answer checkNetworkConnection.
	NetworkProbe string `toml:"network_probe"`
}

// EngineConfig configures the on-device inference engine.
type EngineConfig struct {
	Kind           string   `toml:"kind"` // ollama, openai, none
	Host           string   `toml:"host"`
	APIKey         string   `toml:"api_key"`
	Catalog        []string `toml:"catalog"` // pullable models listed before download
	RequestTimeout Duration `toml:"request_timeout"`
}

// BackendConfig configures the remote REST backend.
type BackendConfig struct {
	Enabled bool     `toml:"enabled"`
	BaseURL string   `toml:"base_url"`
	Timeout Duration `toml:"timeout"`
}

// GenerationConfig tunes the course workflows.
type GenerationConfig struct {
	ContentBudget int  `toml:"content_budget"` // max characters of source content in a prompt
	ProgressStep  int  `toml:"progress_step"`  // percent between download notifications
	Simulate      bool `toml:"simulate_when_uninitialized"`
}

// PathsConfig contains file path settings.
type PathsConfig struct {
	DataDir string `toml:"data_dir"`
	LogsDir string `toml:"logs_dir"`
	PrefsDB string `toml:"prefs_db"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level      string `toml:"level"` // debug, info, warn, error
	File       string `toml:"file"`  // empty disables the file sink
	JSON       bool   `toml:"json"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// EngineKind selects the on-device engine implementation.
type EngineKind string

const (
	EngineOllama EngineKind = "ollama"
	EngineOpenAI EngineKind = "openai"
	EngineNone   EngineKind = "none"
)
