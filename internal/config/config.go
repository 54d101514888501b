package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fleetdocs/internal/logger"
)

// Config carries all process configuration. It is constructed once and
// passed by parameter into every service; no component reads the
// environment directly.
type Config struct {
	// OpenAI Configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Google Cloud Configuration
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Drive Storage Configuration
	DriveRootFolder string

	// Records Store Configuration
	RecordsDBPath string

	// Pipeline Tuning
	SplitThresholdPages int
	MaxPagesPerChunk    int
	NameMatchThreshold  float64

	// Timeouts
	AnalysisTimeout   time.Duration
	ExtractionTimeout time.Duration
	UploadTimeout     time.Duration

	// BatchDelay is an optional pause between documents in batch runs,
	// a caller-level hook for not overloading the analysis backends.
	BatchDelay time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		OpenAIAPIKey:               getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:                getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "us"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		DriveRootFolder:            getEnv("DRIVE_ROOT_FOLDER", "Fleet Documents"),
		RecordsDBPath:              getEnv("RECORDS_DB_PATH", "fleetdocs.db"),
		SplitThresholdPages:        getEnvInt("SPLIT_THRESHOLD_PAGES", 15),
		MaxPagesPerChunk:           getEnvInt("MAX_PAGES_PER_CHUNK", 12),
		NameMatchThreshold:         getEnvFloat("NAME_MATCH_THRESHOLD", 0.6),
		AnalysisTimeout:            getEnvDuration("ANALYSIS_TIMEOUT", 120*time.Second),
		ExtractionTimeout:          getEnvDuration("EXTRACTION_TIMEOUT", 30*time.Second),
		UploadTimeout:              getEnvDuration("UPLOAD_TIMEOUT", 60*time.Second),
		BatchDelay:                 getEnvDuration("BATCH_DELAY", 0),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.GoogleCloudProject == "" {
		return fmt.Errorf("GOOGLE_CLOUD_PROJECT is required")
	}
	if c.DocumentAIProcessorID == "" {
		return fmt.Errorf("DOCUMENT_AI_PROCESSOR_ID is required")
	}
	if c.MaxPagesPerChunk <= 0 {
		return fmt.Errorf("MAX_PAGES_PER_CHUNK must be positive, got %d", c.MaxPagesPerChunk)
	}
	if c.NameMatchThreshold < 0 || c.NameMatchThreshold > 1 {
		return fmt.Errorf("NAME_MATCH_THRESHOLD must be in [0,1], got %f", c.NameMatchThreshold)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
