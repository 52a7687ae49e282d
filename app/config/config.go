package config

import (
	"crypto/rand"
	"fmt"

	"github.com/BurntSushi/toml"
)

// Environment variable keys understood by the server. Flags take
// precedence over the environment; the config file sits below both.
const (
	// EnvKeyAddr is the environment variable key for the listen address.
	EnvKeyAddr = "FLASKTASKS_ADDR"
	// EnvKeyDBPath is the environment variable key for the database file.
	EnvKeyDBPath = "FLASKTASKS_DB"
	// EnvKeySecretKey is the environment variable key for the cookie secret.
	EnvKeySecretKey = "FLASKTASKS_SECRET_KEY"
	// EnvKeyLogLevel is the environment variable key for the log level.
	EnvKeyLogLevel = "FLASKTASKS_LOG_LEVEL"
	// EnvKeyConfig is the environment variable key for the config file path.
	EnvKeyConfig = "FLASKTASKS_CONFIG"
)

// Config holds the full server configuration.
type Config struct {
	// Addr is the address the HTTP server listens on.
	Addr string `toml:"addr"`

	// DBPath is the path of the SQLite database file.
	DBPath string `toml:"db_path"`

	// SecretKey signs the session cookie that carries flash messages.
	// Empty means a random key is generated at startup.
	SecretKey string `toml:"secret_key"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:     ":8080",
		DBPath:   "todos.db",
		LogLevel: "info",
	}
}

// Load returns the default configuration overlaid with the TOML file at
// path. An empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// SessionKey returns the key that signs session cookies. When no secret is
// configured a random key is generated; generated reports that case so
// startup can warn that flashes will not survive a restart.
func (c *Config) SessionKey() (key []byte, generated bool, err error) {
	if c.SecretKey != "" {
		return []byte(c.SecretKey), false, nil
	}
	key = make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate session key: %w", err)
	}
	return key, true, nil
}
