// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for all databases, always absolute
	Port           int
	LogLevel       string
	DevMode        bool
	DataServiceURL string   // Market data service base URL
	Workers        int      // Concurrent rebalance-point evaluations per request
	Benchmarks     []string // Benchmark ETFs tracked by the daily sync
	ExportBucket   string   // S3 bucket for report archiving; empty disables export
	ExportPrefix   string   // Key prefix inside the export bucket

	SnapshotCacheSize int // Max memoized fundamentals snapshots (symbol x cutoff)
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("STOCKAPP_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("PORT", 8000),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		DataServiceURL: getEnv("DATA_SERVICE_URL", "http://localhost:9000"),
		Workers:        getEnvAsInt("BACKTEST_WORKERS", 4),
		Benchmarks:     getEnvAsList("BENCHMARK_SYMBOLS", []string{"SPY"}),
		ExportBucket:   getEnv("EXPORT_BUCKET", ""),
		ExportPrefix:   getEnv("EXPORT_PREFIX", "backtests"),

		SnapshotCacheSize: getEnvAsInt("SNAPSHOT_CACHE_SIZE", 50000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.DataServiceURL == "" {
		return fmt.Errorf("DATA_SERVICE_URL must not be empty")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("BACKTEST_WORKERS must be positive")
	}
	if c.SnapshotCacheSize <= 0 {
		return fmt.Errorf("SNAPSHOT_CACHE_SIZE must be positive")
	}
	return nil
}

// DatabasePath returns the absolute path for a named database file.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
