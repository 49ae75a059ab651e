// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir          string // Base directory for all databases, always absolute
	Port             int
	DevMode          bool
	LogLevel         string
	NewsAPIKey       string // NewsAPI key; empty disables news enrichment
	GeminiAPIKey     string // Gemini key; empty disables sentiment analysis
	AnalysisSchedule string // cron expression for the daily analysis run
	CleanupSchedule  string // cron expression for cache cleanup
	LookbackDays     int    // price history window for the daily scan
	InitialCapital   float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RADAR_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("RADAR_PORT", 8000),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		NewsAPIKey:   getEnv("NEWS_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),

		// Weekdays after US market close (UTC).
		AnalysisSchedule: getEnv("ANALYSIS_SCHEDULE", "30 21 * * MON-FRI"),
		CleanupSchedule:  getEnv("CLEANUP_SCHEDULE", "@hourly"),

		LookbackDays:   getEnvAsInt("LOOKBACK_DAYS", 180),
		InitialCapital: getEnvAsFloat("INITIAL_CAPITAL", 100000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.LookbackDays < 60 {
		return fmt.Errorf("lookback window too short: %d days", c.LookbackDays)
	}

	// News and Gemini keys are optional; enrichment degrades without them.

	return nil
}

// DatabasePath returns the absolute path of a database file in the data dir.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name)
}

// Helper functions
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
