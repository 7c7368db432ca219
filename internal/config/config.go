// internal/config/config.go

// Package config loads the client configuration from an optional YAML file
// with environment overrides. A .env file in the working directory is
// honored for development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the CLI needs to talk to the library service.
type Config struct {
	BaseURL        string `yaml:"base_url"`
	TokenFile      string `yaml:"token_file"`
	Currency       string `yaml:"currency"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	tokenFile := "token.json"
	if dir, err := os.UserConfigDir(); err == nil {
		tokenFile = filepath.Join(dir, "libraterm", "token.json")
	}
	return Config{
		BaseURL:        "http://localhost:8090",
		TokenFile:      tokenFile,
		Currency:       "USD",
		TimeoutSeconds: 15,
	}
}

// Load reads the config file at path when it exists, then applies
// environment overrides. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.BaseURL = getEnv("LIBRATERM_API_URL", cfg.BaseURL)
	cfg.TokenFile = getEnv("LIBRATERM_TOKEN_FILE", cfg.TokenFile)
	cfg.Currency = getEnv("LIBRATERM_CURRENCY", cfg.Currency)
	cfg.OTLPEndpoint = getEnv("LIBRATERM_OTLP_ENDPOINT", cfg.OTLPEndpoint)
	if v := os.Getenv("LIBRATERM_TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("LIBRATERM_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.TimeoutSeconds = n
	}

	return cfg, nil
}

// Timeout returns the request timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultPath is where Load looks when the user gives no --config flag.
func DefaultPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "libraterm", "config.yaml")
	}
	return "libraterm.yaml"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
