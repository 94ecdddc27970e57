// Package config loads gibsoncached's configuration via spf13/viper and
// spf13/cobra, covering both network settings and the cache core's own
// item/memory limits.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gibsoncached server.
type Config struct {
	// Network settings
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// Cache core limits
	MaxKeySize           int   `mapstructure:"max_key_size"`
	MaxValueSize         int   `mapstructure:"max_value_size"`
	MaxItemTTL           int64 `mapstructure:"max_item_ttl"`
	CompressionThreshold int   `mapstructure:"compression_threshold"`

	// Performance settings
	MaxMemory  string        `mapstructure:"max_memory"`
	MaxClients int           `mapstructure:"max_clients"`
	Timeout    time.Duration `mapstructure:"timeout"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Metrics
	MetricsAddr string `mapstructure:"metrics_addr"`

	// Advanced
	TCPKeepAlive bool          `mapstructure:"tcp_keepalive"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns a Config with default values: 250-byte keys and
// 16MB values mirror gibson's documented defaults (see DESIGN.md for the
// rest of the chosen limits).
func DefaultConfig() *Config {
	return &Config{
		Host:                 "localhost",
		Port:                 10128,
		MaxKeySize:           250,
		MaxValueSize:         16 * 1024 * 1024,
		MaxItemTTL:           60 * 60 * 24 * 365,
		CompressionThreshold: 60,
		MaxMemory:            "1GB",
		MaxClients:           10000,
		Timeout:              30 * time.Second,
		LogLevel:             "info",
		LogFormat:            "text",
		MetricsAddr:          ":9090",
		TCPKeepAlive:         true,
		ReadTimeout:          30 * time.Second,
		WriteTimeout:         30 * time.Second,
	}
}

// Load loads configuration from a config file, environment variables, and
// command-line flags, in that ascending order of precedence.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("gibsoncached")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/gibsoncached/")
	viper.AddConfigPath("$HOME/.gibsoncached")

	viper.SetEnvPrefix("GIBSON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("max_key_size", cfg.MaxKeySize)
	viper.SetDefault("max_value_size", cfg.MaxValueSize)
	viper.SetDefault("max_item_ttl", cfg.MaxItemTTL)
	viper.SetDefault("compression_threshold", cfg.CompressionThreshold)
	viper.SetDefault("max_memory", cfg.MaxMemory)
	viper.SetDefault("max_clients", cfg.MaxClients)
	viper.SetDefault("timeout", cfg.Timeout)
	viper.SetDefault("log_level", cfg.LogLevel)
	viper.SetDefault("log_format", cfg.LogFormat)
	viper.SetDefault("metrics_addr", cfg.MetricsAddr)
	viper.SetDefault("tcp_keepalive", cfg.TCPKeepAlive)
	viper.SetDefault("read_timeout", cfg.ReadTimeout)
	viper.SetDefault("write_timeout", cfg.WriteTimeout)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("max_clients must be at least 1")
	}
	if c.MaxKeySize < 1 {
		return fmt.Errorf("max_key_size must be at least 1")
	}
	if c.MaxValueSize < 1 {
		return fmt.Errorf("max_value_size must be at least 1")
	}

	validLogLevels := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	validLevel := false
	for _, level := range validLogLevels {
		if c.LogLevel == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	return nil
}

// ParseMemorySize converts a human-readable memory size to bytes.
func (c *Config) ParseMemorySize() (int64, error) {
	size := strings.ToUpper(c.MaxMemory)

	if size == "" {
		return 0, nil
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(size, "KB"):
		multiplier = 1024
		size = strings.TrimSuffix(size, "KB")
	case strings.HasSuffix(size, "MB"):
		multiplier = 1024 * 1024
		size = strings.TrimSuffix(size, "MB")
	case strings.HasSuffix(size, "GB"):
		multiplier = 1024 * 1024 * 1024
		size = strings.TrimSuffix(size, "GB")
	}

	value, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory size: %s", c.MaxMemory)
	}

	return value * multiplier, nil
}

// String returns a human-readable representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf("gibsoncached Config: %s:%d, MaxMemory: %s, LogLevel: %s",
		c.Host, c.Port, c.MaxMemory, c.LogLevel)
}
