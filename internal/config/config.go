// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	DataPath      string
	ExportDir     string
	TopN          int
	WatchDataFile bool
	DesktopNotify bool
	LogFile       string
	LogLevel      string
}

// Default values
const (
	defaultDataPath  = "out.json"
	defaultExportDir = "."
	defaultTopN      = 20
	defaultLogLevel  = "info"
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	envPaths := getEnvPaths()
	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		DataPath:      getEnvString("USAGE_DATA_PATH", defaultDataPath),
		ExportDir:     getEnvString("EXPORT_DIR", defaultExportDir),
		TopN:          getEnvInt("TOP_N", defaultTopN),
		WatchDataFile: getEnvBool("WATCH_DATA_FILE", false),
		DesktopNotify: getEnvBool("DESKTOP_NOTIFY", false),
		LogFile:       getEnvString("LOG_FILE", ""),
		LogLevel:      getEnvString("LOG_LEVEL", defaultLogLevel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.TopN <= 0 {
		return fmt.Errorf("TOP_N must be positive, got %d", c.TopN)
	}
	if c.DataPath == "" {
		return fmt.Errorf("USAGE_DATA_PATH must not be empty")
	}
	return nil
}

// EnsureExportDir creates the export directory if it does not exist.
func (c *Config) EnsureExportDir() error {
	if err := ensureDir(c.ExportDir); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	// Current directory
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	// Home directory location
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "fud", ".env"))
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns the default.
// Accepts the forms understood by strconv.ParseBool plus "yes"/"no" and "on"/"off".
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "yes", "on":
		return true
	case "no", "off":
		return false
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}

// DashboardLogFile returns the log destination while the terminal UI owns
// the screen: LOG_FILE when set, otherwise fud.log beside the user .env.
func (c *Config) DashboardLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "fud", "fud.log")
	}
	return filepath.Join(os.TempDir(), "fud.log")
}
