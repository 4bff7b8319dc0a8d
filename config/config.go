package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/s0up4200/seedwarden/hnr"
)

// EnvPrefix is prepended to every environment override, e.g.
// SEEDWARDEN_QBITTORRENT_URL or SEEDWARDEN_HNR_HR_ACTIVE
const EnvPrefix = "SEEDWARDEN"

// Load loads the configuration from file and environment. An explicit
// configPath must exist; without one the standard locations are searched and
// a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return load(v)
}

// LoadEnvFile loads variables from a dotenv file without overriding variables
// that are already set. An empty path loads ./.env when present.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}

// Watch reloads the configuration whenever the config file changes and hands
// the result to onChange. Callers swap the new config in themselves.
func Watch(configPath string, onChange func(*Config, error)) error {
	v := newViper(configPath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config: %w", err)
	}

	v.OnConfigChange(func(fsnotify.Event) {
		onChange(load(v))
	})
	v.WatchConfig()

	return nil
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()

	// Set default values
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("qbittorrent.url")

	if configPath != "" {
		v.SetConfigFile(configPath)
		return v
	}

	// Look for config in standard locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Check current directory first
	v.AddConfigPath(".")

	// Check home directory
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".seedwarden"))
	}

	// Check /etc
	v.AddConfigPath("/etc/seedwarden/")

	return v
}

func load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.HNR = hnrSection(v)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// hnrSection collects the hnr keys from file and environment as a flat map.
// Values are passed through untouched; hnr.Parse does the coercion.
func hnrSection(v *viper.Viper) map[string]any {
	raw := make(map[string]any)
	for _, key := range hnr.Keys() {
		full := "hnr." + key
		if v.IsSet(full) {
			raw[key] = v.Get(full)
		}
	}
	return raw
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// qBittorrent defaults
	v.SetDefault("qbittorrent.username", "")
	v.SetDefault("qbittorrent.password", "")
	v.SetDefault("qbittorrent.insecure_skip_verify", false)
	v.SetDefault("qbittorrent.rate_limit", 5.0)
	v.SetDefault("qbittorrent.tracker_cache_ttl", "6h")

	// Safety defaults
	v.SetDefault("safety.dry_run", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	// Webhook defaults
	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.format", "json")
	v.SetDefault("webhook.timeout", "10s")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.QBittorrent.URL) == "" {
		return &ValidationError{Field: "qbittorrent.url", Reason: "is required"}
	}

	if cfg.QBittorrent.RateLimit < 0 {
		return &ValidationError{Field: "qbittorrent.rate_limit", Reason: "must not be negative"}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return &ValidationError{Field: "logging.level", Reason: fmt.Sprintf("invalid value %q", cfg.Logging.Level)}
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return &ValidationError{Field: "logging.format", Reason: fmt.Sprintf("invalid value %q", cfg.Logging.Format)}
	}

	if cfg.Webhook.URL != "" && cfg.Webhook.Format != "json" && cfg.Webhook.Format != "discord" {
		return &ValidationError{Field: "webhook.format", Reason: fmt.Sprintf("invalid value %q", cfg.Webhook.Format)}
	}

	return nil
}
