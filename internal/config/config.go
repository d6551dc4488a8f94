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
	DataDir             string // Base directory for all databases (always absolute)
	LogLevel            string
	Port                int
	DevMode             bool
	MaxPaths            int     // Upper bound on paths per pricing request
	DefaultTradingDays  float64 // Day-count basis when a request omits it
	RevaluationSchedule string  // Cron expression (with seconds); empty disables the job
	Backup              *BackupConfig
}

// BackupConfig holds S3-compatible backup settings
type BackupConfig struct {
	Schedule        string // Cron expression (with seconds); empty disables backups
	Bucket          string
	Endpoint        string // Custom endpoint for S3-compatible stores (R2, MinIO); empty uses AWS
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RetentionDays   int // Age after which archives are rotated out; 0 keeps everything
}

// Enabled reports whether a backup schedule is configured
func (b *BackupConfig) Enabled() bool {
	return b != nil && b.Schedule != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("PRICER_DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MaxPaths:            getEnvAsInt("MAX_PATHS", 2_000_000),
		DefaultTradingDays:  getEnvAsFloat("DEFAULT_TRADING_DAYS", 365),
		RevaluationSchedule: getEnv("REVALUATION_SCHEDULE", "0 0 18 * * MON-FRI"),
		Backup:              loadBackupConfig(),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.MaxPaths <= 0 {
		return fmt.Errorf("MAX_PATHS must be positive, got %d", c.MaxPaths)
	}
	if c.DefaultTradingDays <= 0 {
		return fmt.Errorf("DEFAULT_TRADING_DAYS must be positive, got %g", c.DefaultTradingDays)
	}
	if c.Backup.Enabled() && c.Backup.Bucket == "" {
		return fmt.Errorf("BACKUP_BUCKET is required when BACKUP_SCHEDULE is set")
	}
	if c.Backup != nil && c.Backup.RetentionDays < 0 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must not be negative, got %d", c.Backup.RetentionDays)
	}
	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func loadBackupConfig() *BackupConfig {
	return &BackupConfig{
		Schedule:        getEnv("BACKUP_SCHEDULE", ""),
		Bucket:          getEnv("BACKUP_BUCKET", ""),
		Endpoint:        getEnv("BACKUP_ENDPOINT", ""),
		Region:          getEnv("BACKUP_REGION", "auto"),
		AccessKeyID:     getEnv("BACKUP_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("BACKUP_SECRET_ACCESS_KEY", ""),
		RetentionDays:   getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
	}
}
