package config

import (
	"os"
	"strconv"
	"time"

	"confcurve/domain/curve"
	"confcurve/internal"
	"confcurve/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Curve  CurveDefaults
	Log    LogConfig
	Server ServerConfig
	Batch  BatchConfig
	Output OutputConfig
}

// CurveDefaults holds the interval family sampling used when a request omits it
type CurveDefaults struct {
	Intervals int
	Level     float64
	Verbose   bool
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// BatchConfig holds batch build settings
type BatchConfig struct {
	Workers int
}

// OutputConfig holds where rendered artifacts are written
type OutputConfig struct {
	Dir string
}

// CurveConfig converts the defaults into a domain curve configuration
func (c CurveDefaults) CurveConfig() curve.CurveConfig {
	return curve.CurveConfig{Intervals: c.Intervals, Level: c.Level}
}

// Load reads an optional .env file, then configuration from environment variables, and validates it
func Load() (*Config, error) {
	// Missing .env is normal; system environment still applies
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from the process environment only
func FromEnv() (*Config, error) {
	logConfig, err := loadLogConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load log configuration")
	}

	config := &Config{
		Curve:  *loadCurveDefaults(),
		Log:    *logConfig,
		Server: *loadServerConfig(),
		Batch:  *loadBatchConfig(),
		Output: *loadOutputConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadCurveDefaults() *CurveDefaults {
	return &CurveDefaults{
		Intervals: getEnvIntOrDefault("CURVE_INTERVALS", curve.DefaultIntervals),
		Level:     getEnvFloatOrDefault("CURVE_LEVEL", curve.DefaultLevel),
		Verbose:   getEnvBoolOrDefault("CURVE_VERBOSE", false),
	}
}

func loadLogConfig() (*LogConfig, error) {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return &LogConfig{Level: internal.LogLevelInfo}, nil
	}
	level, ok := internal.ParseLogLevel(raw)
	if !ok {
		return nil, errors.ConfigInvalid("LOG_LEVEL must be one of ERROR, WARN, INFO, DEBUG, TRACE; got " + strconv.Quote(raw))
	}
	return &LogConfig{Level: level}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		ReadTimeout:     getEnvDurationOrDefault("READ_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func loadBatchConfig() *BatchConfig {
	return &BatchConfig{
		Workers: getEnvIntOrDefault("BATCH_WORKERS", 4),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Dir: getEnvOrDefault("OUTPUT_DIR", "."),
	}
}

func validateConfig(config *Config) error {
	if config.Curve.Intervals < 1 {
		return errors.ConfigInvalid("CURVE_INTERVALS must be at least 1")
	}
	if config.Curve.Level <= 0 || config.Curve.Level >= 1 {
		return errors.ConfigInvalid("CURVE_LEVEL must lie strictly between 0 and 1")
	}
	if config.Batch.Workers < 1 {
		return errors.ConfigInvalid("BATCH_WORKERS must be at least 1")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
