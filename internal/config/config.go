package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Supported app languages. The first entry is the default.
var Languages = []string{"English", "Hindi", "Hinglish", "Marathi", "Gujarati"}

// Config holds all configuration for pillwise
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	App       AppConfig       `mapstructure:"app"`
	Reminders RemindersConfig `mapstructure:"reminders"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Security  SecurityConfig  `mapstructure:"security"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// AppConfig holds user-facing defaults
type AppConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
	VoiceEnabled    bool   `mapstructure:"voice_enabled"`
}

// RemindersConfig holds the due-dose runner settings
type RemindersConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// MetricsConfig holds the prometheus listener settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
}

// SecurityConfig holds API hardening settings
type SecurityConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
	RateLimit    float64  `mapstructure:"rate_limit"`
	RateBurst    int      `mapstructure:"rate_burst"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Determine data directory
	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "pillwise.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	// Config file path
	if configPath == "" {
		configPath = filepath.Join(dataDir, "pillwise.yaml")
	}

	// If config file exists, load it
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (PILLWISE_SERVER_PORT, PILLWISE_APP_DEFAULT_LANGUAGE, etc.)
	v.SetEnvPrefix("PILLWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// App defaults
	v.SetDefault("app.default_language", Languages[0])
	v.SetDefault("app.voice_enabled", true)

	// Reminder defaults
	v.SetDefault("reminders.enabled", true)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.address", "127.0.0.1")
	v.SetDefault("metrics.port", 9090)

	// Security defaults
	v.SetDefault("security.allow_origins", []string{"*"})
	v.SetDefault("security.rate_limit", 20.0)
	v.SetDefault("security.rate_burst", 40)
}

func getDefaultDataDir() string {
	// Try XDG_DATA_HOME first
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pillwise")
	}

	// Fall back to home directory
	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "pillwise")
}

// loadEnvOverrides loads specific env vars that Viper misses when the
// key was never set through defaults or the config file
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	// Server settings
	cfg.Server.Address = getEnv("PILLWISE_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("PILLWISE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// Storage settings
	cfg.Storage.DataDir = getEnv("PILLWISE_STORAGE_DATA_DIR", cfg.Storage.DataDir)

	// App settings
	cfg.App.DefaultLanguage = getEnv("PILLWISE_APP_DEFAULT_LANGUAGE", cfg.App.DefaultLanguage)
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", cfg.Server.Port)
	}

	if !IsSupportedLanguage(cfg.App.DefaultLanguage) {
		return fmt.Errorf("app.default_language %q is not supported (choose one of %s)",
			cfg.App.DefaultLanguage, strings.Join(Languages, ", "))
	}

	if cfg.Security.RateLimit <= 0 {
		cfg.Security.RateLimit = 20.0
	}
	if cfg.Security.RateBurst <= 0 {
		cfg.Security.RateBurst = 40
	}

	return nil
}

// IsSupportedLanguage reports whether lang is one of the shipped app languages.
func IsSupportedLanguage(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}
