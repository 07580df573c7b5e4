// Package config loads the settings shared by the pixconv tools and the
// preview server from PIXCONV_* environment variables and flag overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rcarmo/pixconv/internal/colormatrix"
	"github.com/rcarmo/pixconv/internal/convert"
)

const envPrefix = "PIXCONV_"

// globalConfig is the configuration the last LoadWithOverrides produced.
var (
	globalConfig *Config
	configMutex  sync.Mutex
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `json:"server"`
	Conversion ConversionConfig `json:"conversion"`
	Security   SecurityConfig   `json:"security"`
	Logging    LoggingConfig    `json:"logging"`
}

// LoadOptions holds command-line overrides. Empty strings and nil pointers
// leave the environment value in place.
type LoadOptions struct {
	Host         string
	Port         string
	LogLevel     string
	Standard     string
	Resampling   string
	NoSIMD       *bool
	BaselineOnly *bool
}

// ServerConfig holds preview server settings
type ServerConfig struct {
	Host         string        `json:"host" env:"PIXCONV_HOST" default:"0.0.0.0"`
	Port         string        `json:"port" env:"PIXCONV_PORT" default:"8080"`
	ReadTimeout  time.Duration `json:"readTimeout" env:"PIXCONV_READ_TIMEOUT" default:"30s"`
	WriteTimeout time.Duration `json:"writeTimeout" env:"PIXCONV_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout  time.Duration `json:"idleTimeout" env:"PIXCONV_IDLE_TIMEOUT" default:"120s"`
}

// ConversionConfig holds the defaults applied to conversions that do not
// name their own colorimetry or resampling, plus frame size limits for
// requests arriving over HTTP.
type ConversionConfig struct {
	Standard     string `json:"standard" env:"PIXCONV_STANDARD" default:"bt601"`
	Resampling   string `json:"resampling" env:"PIXCONV_RESAMPLING" default:"avg"`
	NoSIMD       bool   `json:"noSIMD" env:"PIXCONV_NO_SIMD" default:"false"`
	BaselineOnly bool   `json:"baselineOnly" env:"PIXCONV_BASELINE_ONLY" default:"false"`
	MaxWidth     int    `json:"maxWidth" env:"PIXCONV_MAX_WIDTH" default:"3840"`
	MaxHeight    int    `json:"maxHeight" env:"PIXCONV_MAX_HEIGHT" default:"2160"`
	PreviewFPS   int    `json:"previewFPS" env:"PIXCONV_PREVIEW_FPS" default:"10"`
}

// SecurityConfig holds origin and connection limits for the preview socket
type SecurityConfig struct {
	AllowedOrigins []string `json:"allowedOrigins" env:"PIXCONV_ALLOWED_ORIGINS" default:""`
	MaxConnections int      `json:"maxConnections" env:"PIXCONV_MAX_CONNECTIONS" default:"16"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `json:"level" env:"PIXCONV_LOG_LEVEL" default:"info"`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	return LoadWithOverrides(LoadOptions{})
}

// LoadWithOverrides loads configuration with command-line overrides
func LoadWithOverrides(opts LoadOptions) (*Config, error) {
	config := &Config{}

	config.Server.Host = getOverrideOrEnv(opts.Host, "HOST", "0.0.0.0")
	config.Server.Port = getOverrideOrEnv(opts.Port, "PORT", "8080")
	config.Server.ReadTimeout = getDurationWithDefault("READ_TIMEOUT", 30*time.Second)
	config.Server.WriteTimeout = getDurationWithDefault("WRITE_TIMEOUT", 30*time.Second)
	config.Server.IdleTimeout = getDurationWithDefault("IDLE_TIMEOUT", 120*time.Second)

	config.Conversion.Standard = getOverrideOrEnv(opts.Standard, "STANDARD", "bt601")
	config.Conversion.Resampling = getOverrideOrEnv(opts.Resampling, "RESAMPLING", "avg")
	config.Conversion.NoSIMD = getBoolOverride(opts.NoSIMD, "NO_SIMD", false)
	config.Conversion.BaselineOnly = getBoolOverride(opts.BaselineOnly, "BASELINE_ONLY", false)
	config.Conversion.MaxWidth = getIntWithDefault("MAX_WIDTH", 3840)
	config.Conversion.MaxHeight = getIntWithDefault("MAX_HEIGHT", 2160)
	config.Conversion.PreviewFPS = getIntWithDefault("PREVIEW_FPS", 10)

	config.Security.AllowedOrigins = getStringSliceWithDefault("ALLOWED_ORIGINS", []string{})
	config.Security.MaxConnections = getIntWithDefault("MAX_CONNECTIONS", 16)

	config.Logging.Level = getOverrideOrEnv(opts.LogLevel, "LOG_LEVEL", "info")

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = config
	configMutex.Unlock()

	return config, nil
}

// GetGlobalConfig returns the configuration stored by the last successful
// LoadWithOverrides, or nil.
func GetGlobalConfig() *Config {
	configMutex.Lock()
	defer configMutex.Unlock()
	return globalConfig
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if _, err := colormatrix.ParseStandard(c.Conversion.Standard); err != nil {
		return fmt.Errorf("invalid standard: %s", c.Conversion.Standard)
	}

	if _, err := convert.ParseResampling(c.Conversion.Resampling); err != nil {
		return fmt.Errorf("invalid resampling: %s", c.Conversion.Resampling)
	}

	if c.Conversion.MaxWidth <= 0 || c.Conversion.MaxHeight <= 0 {
		return fmt.Errorf("max dimensions must be positive")
	}

	if c.Conversion.PreviewFPS < 1 || c.Conversion.PreviewFPS > 60 {
		return fmt.Errorf("preview fps must be between 1 and 60: %d", c.Conversion.PreviewFPS)
	}

	if c.Security.MaxConnections <= 0 {
		return fmt.Errorf("max connections must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// Defaults turns the conversion section into request defaults. Validate
// has already rejected names that would fail here.
func (c *ConversionConfig) Defaults() (colormatrix.Standard, convert.Resampling, convert.Flags) {
	std, _ := colormatrix.ParseStandard(c.Standard)
	res, _ := convert.ParseResampling(c.Resampling)
	var flags convert.Flags
	if c.NoSIMD {
		flags |= convert.NoSIMD
	}
	if c.BaselineOnly {
		flags |= convert.BaselineOnly
	}
	return std, res, flags
}

// AllowsSize reports whether a w x h frame is within the configured limits.
func (c *ConversionConfig) AllowsSize(w, h int) bool {
	return w > 0 && h > 0 && w <= c.MaxWidth && h <= c.MaxHeight
}

// Helper functions for environment variable parsing. Keys are given
// without the PIXCONV_ prefix.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getBoolOverride(override *bool, key string, defaultValue bool) bool {
	if override != nil {
		return *override
	}
	return getBoolWithDefault(key, defaultValue)
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getStringSliceWithDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return splitString(value, ",")
	}
	return defaultValue
}

// getOverrideOrEnv returns command-line override value, env value, or default
func getOverrideOrEnv(override, envKey, defaultValue string) string {
	if override != "" {
		return override
	}
	return getEnvWithDefault(envKey, defaultValue)
}

func splitString(s, sep string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
