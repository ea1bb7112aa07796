// Package config reads the tool defaults from the environment.
package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// BatchConfig controls the analysis run.
type BatchConfig struct {
	Workers     int
	Grace       time.Duration
	Results     string // Report name, without the .csv
	DebugRoot   string
	MetricsFile string
}

// DetectConfig overrides selected detector defaults. Zero values keep the library defaults.
type DetectConfig struct {
	MarginDivisor  int
	WindowSize     int
	FallbackKernel int
	WhiteLines     bool
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Batch   BatchConfig
	Detect  DetectConfig
}

// FromEnv loads configuration from the environment, after reading .env in the working directory if there is one.
func FromEnv() Config {
	_ = godotenv.Load()

	cfg := Config{}
	cfg.Logging = LoggingConfig{
		Level:      getEnv("DESKEW_LOG_LEVEL", ""),
		Pretty:     parseBool(getEnv("DESKEW_LOG_PRETTY", "true")),
		File:       getEnv("DESKEW_LOG_FILE", "hough.log"),
		MaxSizeMB:  parseInt(getEnv("DESKEW_LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("DESKEW_LOG_MAX_BACKUPS", "5"), 5),
		MaxAgeDays: parseInt(getEnv("DESKEW_LOG_MAX_AGE_DAYS", "30"), 30),
	}

	cfg.Batch = BatchConfig{
		Workers:     parseInt(getEnv("DESKEW_WORKERS", ""), runtime.NumCPU()),
		Grace:       parseDuration(getEnv("DESKEW_GRACE", "2s"), 2*time.Second),
		Results:     getEnv("DESKEW_RESULTS", "results"),
		DebugRoot:   getEnv("DESKEW_DEBUG_ROOT", "debug"),
		MetricsFile: getEnv("DESKEW_METRICS_FILE", ""),
	}
	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = runtime.NumCPU()
	}

	cfg.Detect = DetectConfig{
		MarginDivisor:  parseInt(getEnv("DESKEW_MARGIN_DIVISOR", ""), 0),
		WindowSize:     parseInt(getEnv("DESKEW_WINDOW", ""), 0),
		FallbackKernel: parseInt(getEnv("DESKEW_FALLBACK_KERNEL", ""), 0),
		WhiteLines:     parseBool(getEnv("DESKEW_WHITE_LINES", "0")),
	}
	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
