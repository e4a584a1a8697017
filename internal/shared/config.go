package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Resolver  ResolverConfig  `toml:"resolver"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Jobs      JobsConfig      `toml:"jobs"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ResolverConfig contains settings for the external link-resolution service.
//
// Credentials are passed into the client constructor from here, never read
// from ambient process state.
type ResolverConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// EmbeddingConfig contains settings for the external embedding provider.
type EmbeddingConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// JobsConfig contains batch resolution job settings.
type JobsConfig struct {
	BatchSize      int     `toml:"batch_size"`
	CandidateLimit int     `toml:"candidate_limit"`
	TrackDelayMS   int     `toml:"track_delay_ms"`
	MaxRetries     int     `toml:"max_retries"`
	BaseBackoffMS  int     `toml:"base_backoff_ms"`
	RequestsPerSec float64 `toml:"requests_per_sec"`
}

// TrackDelay returns the fixed inter-track delay as a [time.Duration].
func (j JobsConfig) TrackDelay() time.Duration {
	return time.Duration(j.TrackDelayMS) * time.Millisecond
}

// BaseBackoff returns the initial retry backoff as a [time.Duration].
func (j JobsConfig) BaseBackoff() time.Duration {
	return time.Duration(j.BaseBackoffMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
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
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
