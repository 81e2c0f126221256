// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	LogLevel     string
	LogPretty    bool
	Seed         uint64 // Base seed for every random stream of a run
	Workers      int    // 0 = one per logical CPU
	ChunkSize    int    // Samples per parallel simulation chunk
	ScenarioFile string // Empty = built-in scenarios only
	OutputDir    string // Always absolute
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	outputDir := getEnv("SAFEHAVEN_OUTPUT_DIR", "./out")
	absOutputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}

	cfg := &Config{
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", true),
		Seed:         getEnvAsUint64("SAFEHAVEN_SEED", 1234),
		Workers:      getEnvAsInt("SAFEHAVEN_WORKERS", 0),
		ChunkSize:    getEnvAsInt("SAFEHAVEN_CHUNK_SIZE", 1024),
		ScenarioFile: getEnv("SAFEHAVEN_SCENARIO_FILE", ""),
		OutputDir:    absOutputDir,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the simulation cannot run with
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("SAFEHAVEN_WORKERS must be >= 0, got %d", c.Workers)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("SAFEHAVEN_CHUNK_SIZE must be > 0, got %d", c.ChunkSize)
	}
	return nil
}

// EnsureOutputDir creates the output directory if needed
func (c *Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
