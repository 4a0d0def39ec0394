// Package config loads quotesync settings from defaults, a YAML file, a
// .env.local file and QUOTESYNC_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DBPath       string        `yaml:"db_path"`
	RemoteURL    string        `yaml:"remote_url"`
	RemoteFile   string        `yaml:"remote_file"`
	Interval     time.Duration `yaml:"interval"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	LogFile      string        `yaml:"log_file"`
	LogMaxSizeMB int           `yaml:"log_max_size_mb"`
	Output       string        `yaml:"output"`
}

// Defaults returns the configuration used when nothing else is set.
// DBPath stays empty here; Load fills it in.
func Defaults() *Config {
	return &Config{
		Interval:     30 * time.Second,
		FetchTimeout: 30 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
		LogMaxSizeMB: 10,
		Output:       "text",
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. The YAML file at path, or ~/.config/quotesync/config.yaml if path is empty
// 4. Defaults
//
// An explicit path must exist; the default file is optional.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	// Values already in the environment win over .env.local.
	if envPath := findEnvLocal(); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("ignoring unreadable env file", "path", envPath, "error", err)
		}
	}

	if err := loadYAMLConfig(cfg, path); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.DBPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(homeDir, ".local", "share", "quotesync", "quotesync.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive (got %s)", c.Interval)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative (got %s)", c.FetchTimeout)
	}
	if c.RemoteURL != "" && c.RemoteFile != "" {
		return errors.New("remote_url and remote_file are mutually exclusive")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("invalid log_format %q (must be text or json)", c.LogFormat)
	}
	if c.Output != "text" && c.Output != "json" {
		return fmt.Errorf("invalid output %q (must be text or json)", c.Output)
	}
	if c.LogMaxSizeMB <= 0 {
		return fmt.Errorf("log_max_size_mb must be positive (got %d)", c.LogMaxSizeMB)
	}
	return nil
}

// HasRemote reports whether a remote source is configured.
func (c *Config) HasRemote() bool {
	return c.RemoteURL != "" || c.RemoteFile != ""
}

// DefaultPath returns ~/.config/quotesync/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "quotesync", "config.yaml"), nil
}

// loadYAMLConfig merges the YAML file into cfg.
func loadYAMLConfig(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := getEnvOrFile("QUOTESYNC_DB_PATH", "QUOTESYNC_DB_PATH_FILE"); v != "" {
		cfg.DBPath = v
	}
	if v := getEnvOrFile("QUOTESYNC_REMOTE_URL", "QUOTESYNC_REMOTE_URL_FILE"); v != "" {
		cfg.RemoteURL = v
	}
	if v := os.Getenv("QUOTESYNC_REMOTE_FILE"); v != "" {
		cfg.RemoteFile = v
	}
	if v := os.Getenv("QUOTESYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("QUOTESYNC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("QUOTESYNC_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("QUOTESYNC_OUTPUT"); v != "" {
		cfg.Output = v
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"QUOTESYNC_INTERVAL", &cfg.Interval},
		{"QUOTESYNC_FETCH_TIMEOUT", &cfg.FetchTimeout},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("QUOTESYNC_LOG_MAX_SIZE_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse QUOTESYNC_LOG_MAX_SIZE_MB: %w", err)
		}
		cfg.LogMaxSizeMB = n
	}
	return nil
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
