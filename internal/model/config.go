package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// APIConfig holds connection settings for the ticketing platform API.
type APIConfig struct {
	// BaseURL is the root URL of the platform API
	// (e.g., https://tickets.example.com).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec is the per-request timeout in seconds.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// NotificationConfig holds tuning knobs for the notification subsystem.
// The dedup window and toast throttle started life as empirically chosen
// constants; they are configuration rather than hard invariants.
type NotificationConfig struct {
	// DedupWindowMS is how close together (in milliseconds) two
	// same-text notifications must arrive to count as one logical event.
	DedupWindowMS int `mapstructure:"dedup_window_ms" yaml:"dedup_window_ms"`

	// ToastThrottleMS is the minimum gap (in milliseconds) between two
	// toasts carrying the same text.
	ToastThrottleMS int `mapstructure:"toast_throttle_ms" yaml:"toast_throttle_ms"`

	// ReconnectMaxAttempts caps the push channel's automatic reconnect
	// attempts before it gives up and goes back to disconnected.
	ReconnectMaxAttempts int `mapstructure:"reconnect_max_attempts" yaml:"reconnect_max_attempts"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API           APIConfig          `mapstructure:"api" yaml:"api"`
	Notifications NotificationConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig      `mapstructure:"display" yaml:"display"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/eventdesk/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "eventdesk", "config.yaml")
}

// DefaultDataPath returns the default path for the local cache database,
// located at ~/.config/eventdesk/eventdesk.db.
func DefaultDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "eventdesk.db")
	}
	return filepath.Join(home, ".config", "eventdesk", "eventdesk.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL:    "https://localhost:7283",
			TimeoutSec: 30,
		},
		Notifications: NotificationConfig{
			DedupWindowMS:        5000,
			ToastThrottleMS:      2000,
			ReconnectMaxAttempts: 6,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api.base_url", "https://localhost:7283")
	v.SetDefault("api.timeout_sec", 30)
	v.SetDefault("notifications.dedup_window_ms", 5000)
	v.SetDefault("notifications.toast_throttle_ms", 2000)
	v.SetDefault("notifications.reconnect_max_attempts", 6)
	v.SetDefault("display.theme", "default")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
