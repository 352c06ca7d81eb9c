package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration
type Config struct {
	// HTTP Server
	HTTPAddr string

	// Camera relay
	MaxFrameBytes     int64
	MinTimeout        time.Duration
	MaxTimeout        time.Duration
	TimeoutMultiplier float64
	WSClientBuffer    int // frames queued per websocket viewer

	// Upload auth
	UploadAuth             bool
	AdminKey               string
	DefaultTokenExpiration time.Duration
	MaxTokenExpiration     time.Duration

	// Placeholder storage
	PlaceholderPath string
	StorageType     string // "local" or "gcs"
	StorageDir      string
	GCSBucketName   string
	GCSBaseDir      string

	// Control plane
	MQTTBroker      string // empty disables command forwarding
	MQTTTopic       string
	MQTTClientID    string
	CommandThrottle time.Duration

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"
}

// fileConfig mirrors Config with TOML-friendly string durations
type fileConfig struct {
	HTTPAddr               string  `toml:"http_addr"`
	MaxFrameBytes          int64   `toml:"max_frame_bytes"`
	MinTimeout             string  `toml:"min_timeout"`
	MaxTimeout             string  `toml:"max_timeout"`
	TimeoutMultiplier      float64 `toml:"timeout_multiplier"`
	WSClientBuffer         int     `toml:"ws_client_buffer"`
	UploadAuth             *bool   `toml:"upload_auth"`
	AdminKey               string  `toml:"admin_key"`
	DefaultTokenExpiration string  `toml:"default_token_expiration"`
	MaxTokenExpiration     string  `toml:"max_token_expiration"`
	PlaceholderPath        string  `toml:"placeholder_path"`
	StorageType            string  `toml:"storage_type"`
	StorageDir             string  `toml:"storage_dir"`
	GCSBucketName          string  `toml:"gcs_bucket_name"`
	GCSBaseDir             string  `toml:"gcs_base_dir"`
	MQTTBroker             string  `toml:"mqtt_broker"`
	MQTTTopic              string  `toml:"mqtt_topic"`
	MQTTClientID           string  `toml:"mqtt_client_id"`
	CommandThrottle        string  `toml:"command_throttle"`
	LogLevel               string  `toml:"log_level"`
	LogFormat              string  `toml:"log_format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		HTTPAddr:               ":3000",
		MaxFrameBytes:          5 * 1024 * 1024,
		MinTimeout:             1 * time.Second,
		MaxTimeout:             10 * time.Second,
		TimeoutMultiplier:      3,
		WSClientBuffer:         4,
		DefaultTokenExpiration: 1 * time.Hour,
		MaxTokenExpiration:     24 * time.Hour,
		StorageType:            "local",
		StorageDir:             "./assets",
		MQTTTopic:              "rover/control",
		MQTTClientID:           "rovercam",
		CommandThrottle:        500 * time.Millisecond,
		LogLevel:               "info",
		LogFormat:              "text",
	}
}

// Load builds the configuration from defaults, the TOML file named by
// CONFIG_FILE (if any), then environment variables, in that order
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		fc, err := loadFileConfig(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(fc); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the relay cannot run with
func (c *Config) Validate() error {
	if c.MaxFrameBytes <= 0 {
		return fmt.Errorf("max frame bytes must be positive")
	}
	if c.MinTimeout <= 0 || c.MaxTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.MinTimeout > c.MaxTimeout {
		return fmt.Errorf("min timeout %s exceeds max timeout %s", c.MinTimeout, c.MaxTimeout)
	}
	if c.TimeoutMultiplier <= 0 {
		return fmt.Errorf("timeout multiplier must be positive")
	}
	if c.WSClientBuffer < 1 {
		return fmt.Errorf("websocket client buffer must be at least 1")
	}
	switch c.StorageType {
	case "local":
	case "gcs":
		if c.GCSBucketName == "" {
			return fmt.Errorf("GCS_BUCKET_NAME must be set when STORAGE_TYPE=gcs")
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.StorageType)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// loadFileConfig reads and parses a TOML config file
func loadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, fmt.Errorf("failed to parse config file: %w", err)
	}
	return fc, nil
}

// applyFile overlays the non-empty values of fc
func (c *Config) applyFile(fc fileConfig) error {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.AdminKey, fc.AdminKey)
	setString(&c.PlaceholderPath, fc.PlaceholderPath)
	setString(&c.StorageType, fc.StorageType)
	setString(&c.StorageDir, fc.StorageDir)
	setString(&c.GCSBucketName, fc.GCSBucketName)
	setString(&c.GCSBaseDir, fc.GCSBaseDir)
	setString(&c.MQTTBroker, fc.MQTTBroker)
	setString(&c.MQTTTopic, fc.MQTTTopic)
	setString(&c.MQTTClientID, fc.MQTTClientID)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)

	if fc.MaxFrameBytes != 0 {
		c.MaxFrameBytes = fc.MaxFrameBytes
	}
	if fc.TimeoutMultiplier != 0 {
		c.TimeoutMultiplier = fc.TimeoutMultiplier
	}
	if fc.WSClientBuffer != 0 {
		c.WSClientBuffer = fc.WSClientBuffer
	}
	if fc.UploadAuth != nil {
		c.UploadAuth = *fc.UploadAuth
	}

	durations := []struct {
		key string
		val string
		dst *time.Duration
	}{
		{"min_timeout", fc.MinTimeout, &c.MinTimeout},
		{"max_timeout", fc.MaxTimeout, &c.MaxTimeout},
		{"default_token_expiration", fc.DefaultTokenExpiration, &c.DefaultTokenExpiration},
		{"max_token_expiration", fc.MaxTokenExpiration, &c.MaxTokenExpiration},
		{"command_throttle", fc.CommandThrottle, &c.CommandThrottle},
	}
	for _, d := range durations {
		if d.val == "" {
			continue
		}
		v, err := time.ParseDuration(d.val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

// applyEnv overlays environment variables, keeping current values as defaults
func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.MaxFrameBytes = getInt64Env("CAMERA_MAX_FRAME_BYTES", c.MaxFrameBytes)
	c.MinTimeout = getDurationEnv("CAMERA_MIN_TIMEOUT", c.MinTimeout)
	c.MaxTimeout = getDurationEnv("CAMERA_MAX_TIMEOUT", c.MaxTimeout)
	c.TimeoutMultiplier = getFloatEnv("CAMERA_TIMEOUT_MULTIPLIER", c.TimeoutMultiplier)
	c.WSClientBuffer = getIntEnv("WS_CLIENT_BUFFER", c.WSClientBuffer)
	c.UploadAuth = getBoolEnv("CAMERA_UPLOAD_AUTH", c.UploadAuth)
	c.AdminKey = getEnv("ADMIN_KEY", c.AdminKey)
	c.DefaultTokenExpiration = getDurationEnv("DEFAULT_TOKEN_EXPIRATION", c.DefaultTokenExpiration)
	c.MaxTokenExpiration = getDurationEnv("MAX_TOKEN_EXPIRATION", c.MaxTokenExpiration)
	c.PlaceholderPath = getEnv("PLACEHOLDER_PATH", c.PlaceholderPath)
	c.StorageType = getEnv("STORAGE_TYPE", c.StorageType)
	c.StorageDir = getEnv("STORAGE_DIR", c.StorageDir)
	c.GCSBucketName = getEnv("GCS_BUCKET_NAME", c.GCSBucketName)
	c.GCSBaseDir = getEnv("GCS_BASE_DIR", c.GCSBaseDir)
	c.MQTTBroker = getEnv("MQTT_BROKER", c.MQTTBroker)
	c.MQTTTopic = getEnv("MQTT_TOPIC", c.MQTTTopic)
	c.MQTTClientID = getEnv("MQTT_CLIENT_ID", c.MQTTClientID)
	c.CommandThrottle = getDurationEnv("COMMAND_THROTTLE", c.CommandThrottle)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Helper functions to get environment variables with defaults

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
