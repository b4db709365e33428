package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	// APIKeyEnv overrides api_key when set.
	APIKeyEnv = "NEKOWEB_API_KEY"

	MinChunkSize     = 1024
	MaxChunkSize     = 100 * 1024 * 1024
	MinUploadWorkers = 1
	MaxUploadWorkers = 32
)

// Config represents the main application configuration
type Config struct {
	APIKey           string     `toml:"api_key"`
	BaseURL          string     `toml:"base_url"`
	UserAgent        string     `toml:"user_agent"`
	Loglevel         string     `toml:"loglevel"`
	ChunkSize        int        `toml:"chunk_size"`
	BigFileThreshold int64      `toml:"big_file_threshold"`
	UploadWorkers    int        `toml:"upload_workers"`
	Mock             MockConfig `toml:"mock"`
}

// MockConfig holds settings for the local mock API server
type MockConfig struct {
	BindAddress string `toml:"bind_address"`
	Port        int    `toml:"port"`
	APIKey      string `toml:"api_key"`
	Username    string `toml:"username"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://nekoweb.org/api",
		UserAgent:        "gonekoweb",
		Loglevel:         "info",
		ChunkSize:        4096,
		BigFileThreshold: 100 * 1024 * 1024,
		UploadWorkers:    4,
		Mock: MockConfig{
			BindAddress: "127.0.0.1",
			Port:        8787,
			APIKey:      "mock-api-key",
			Username:    "mock",
		},
	}
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "gonekoweb", "config.toml"), nil
}

// Load loads configuration from a TOML file. When allowMissing is set a
// missing file yields the defaults.
func Load(configPath string, allowMissing bool) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// LoadEnv reads a .env file from the working directory, if there is one,
// and applies NEKOWEB_API_KEY over the configured key.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	if key := os.Getenv(APIKeyEnv); key != "" {
		c.APIKey = key
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("base_url is invalid: %v", err)
	}
	if _, err := logrus.ParseLevel(c.Loglevel); err != nil {
		return fmt.Errorf("loglevel must be one of: panic, fatal, error, warn, info, debug, trace")
	}
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk_size must be between %d and %d bytes", MinChunkSize, MaxChunkSize)
	}
	if c.BigFileThreshold < 0 {
		return fmt.Errorf("big_file_threshold must not be negative")
	}
	if c.UploadWorkers < MinUploadWorkers || c.UploadWorkers > MaxUploadWorkers {
		return fmt.Errorf("upload_workers must be between %d and %d", MinUploadWorkers, MaxUploadWorkers)
	}
	if c.Mock.Port < 1 || c.Mock.Port > 65535 {
		return fmt.Errorf("mock.port must be between 1 and 65535")
	}

	return nil
}

// RequireAPIKey reports an error when no API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required (set it in the config file or %s)", APIKeyEnv)
	}
	return nil
}
