package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvServerURL = "SUBCTL_SERVER_URL"
	EnvFormPath  = "SUBCTL_FORM"
)

// Config represents the client configuration loaded from a TOML file.
type Config struct {
	Server ServerConfig `toml:"server"`
	Stream StreamConfig `toml:"stream"`
	Log    LogConfig    `toml:"log"`
	Form   FormConfig   `toml:"form"`
}

// ServerConfig locates the task server.
type ServerConfig struct {
	URL string `toml:"url"`
}

// StreamConfig controls reconnection of the push channel.
//
// MaxRetries of zero makes the first lost connection terminal.
type StreamConfig struct {
	MaxRetries          int     `toml:"max_retries"`
	InitialBackoff      string  `toml:"initial_backoff"`
	MaxBackoff          string  `toml:"max_backoff"`
	ReconnectsPerMinute float64 `toml:"reconnects_per_minute"`
}

// LogConfig covers both the operational logger and the user-facing status record.
type LogConfig struct {
	Level    string `toml:"level"`
	Capacity int    `toml:"capacity"`
	File     string `toml:"file"`
}

// FormConfig points at the file holding configuration form values.
type FormConfig struct {
	Path string `toml:"path"`
}

// InitialBackoffDuration parses InitialBackoff, falling back to one second.
func (s StreamConfig) InitialBackoffDuration() time.Duration {
	return parseDuration(s.InitialBackoff, time.Second)
}

// MaxBackoffDuration parses MaxBackoff, falling back to thirty seconds.
func (s StreamConfig) MaxBackoffDuration() time.Duration {
	return parseDuration(s.MaxBackoff, 30*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.URL) == "" {
		return fmt.Errorf("%w: server.url is required", ErrInvalidConfig)
	}
	if c.Stream.MaxRetries < 0 {
		return fmt.Errorf("%w: stream.max_retries must not be negative", ErrInvalidConfig)
	}
	if c.Log.Capacity < 0 {
		return fmt.Errorf("%w: log.capacity must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ApplyEnv overrides file values with SUBCTL_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv(EnvFormPath); v != "" {
		c.Form.Path = v
	}
}

// BaseURL returns the server URL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
