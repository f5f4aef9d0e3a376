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
	DataDir   string // Base directory for the study database, participant logs and session snapshots
	TasksFile string // Path to the task content JSON file
	LogLevel  string
	Port      int
	DevMode   bool
	Storage   string // "sqlite" or "file" - event sink backend preference
	Study     StudyConfig
	Backup    *BackupConfig
}

// StudyConfig holds the study design parameters.
// Defaults match the deployed study protocol; overridable per deployment.
type StudyConfig struct {
	InitialAmount    float64 // Virtual budget handed to each participant
	NumTasks         int     // Number of main investment tasks
	Checkpoints      []int   // Display numbers after which a confidence/risk checkpoint is inserted
	MinAge           int
	MaxAge           int
	MaxDecimalPlaces int // Investment amounts must round-trip at this precision
	SliderMin        int // Confidence/risk rating scale lower bound
	SliderMax        int // Confidence/risk rating scale upper bound
}

// BackupConfig holds S3-compatible backup settings.
// Backups are disabled unless a bucket is configured.
type BackupConfig struct {
	Enabled   bool
	Bucket    string
	Endpoint  string // Custom endpoint for S3-compatible storage (empty = AWS S3)
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string // Key prefix inside the bucket
	Keep      int    // Number of backups to retain
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MINDSET_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		TasksFile: getEnv("MINDSET_TASKS_FILE", filepath.Join(absDataDir, "tasks.json")),
		Port:      getEnvAsInt("PORT", 8050),
		DevMode:   getEnvAsBool("DEV_MODE", false),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Storage:   getEnv("MINDSET_STORAGE", "sqlite"),
		Study: StudyConfig{
			InitialAmount:    getEnvAsFloat("INITIAL_AMOUNT", 1000),
			NumTasks:         getEnvAsInt("NUM_TASKS", 14),
			Checkpoints:      getEnvAsIntList("CONFIDENCE_RISK_CHECKPOINTS", []int{7}),
			MinAge:           18,
			MaxAge:           120,
			MaxDecimalPlaces: 2,
			SliderMin:        1,
			SliderMax:        7,
		},
		Backup: loadBackupConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present and coherent
func (c *Config) Validate() error {
	if c.Storage != "sqlite" && c.Storage != "file" {
		return fmt.Errorf("invalid MINDSET_STORAGE %q (expected sqlite or file)", c.Storage)
	}
	if c.Study.NumTasks < 1 {
		return fmt.Errorf("NUM_TASKS must be at least 1, got %d", c.Study.NumTasks)
	}
	if c.Study.InitialAmount <= 0 {
		return fmt.Errorf("INITIAL_AMOUNT must be positive, got %v", c.Study.InitialAmount)
	}
	for _, cp := range c.Study.Checkpoints {
		if cp < 1 || cp > c.Study.NumTasks {
			return fmt.Errorf("checkpoint %d out of range 1..%d", cp, c.Study.NumTasks)
		}
	}
	return nil
}

// FirstCheckpoint returns the lowest checkpoint value, or 0 if none are configured.
func (s StudyConfig) FirstCheckpoint() int {
	first := 0
	for _, cp := range s.Checkpoints {
		if first == 0 || cp < first {
			first = cp
		}
	}
	return first
}

// IsCheckpoint reports whether a completed display number triggers a
// confidence/risk checkpoint.
func (s StudyConfig) IsCheckpoint(displayNumber int) bool {
	for _, cp := range s.Checkpoints {
		if cp == displayNumber {
			return true
		}
	}
	return false
}

// loadBackupConfig loads backup settings; backup is enabled only when a bucket is set
func loadBackupConfig() *BackupConfig {
	bucket := getEnv("BACKUP_S3_BUCKET", "")
	return &BackupConfig{
		Enabled:   bucket != "",
		Bucket:    bucket,
		Endpoint:  getEnv("BACKUP_S3_ENDPOINT", ""),
		Region:    getEnv("BACKUP_S3_REGION", "auto"),
		AccessKey: getEnv("BACKUP_S3_ACCESS_KEY", ""),
		SecretKey: getEnv("BACKUP_S3_SECRET_KEY", ""),
		Prefix:    getEnv("BACKUP_S3_PREFIX", "mindset-backups"),
		Keep:      getEnvAsInt("BACKUP_KEEP", 14),
	}
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

func getEnvAsIntList(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		intVal, err := strconv.Atoi(part)
		if err != nil {
			return defaultValue
		}
		out = append(out, intVal)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
