package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the client
type Config struct {
	// Remote API configuration
	API APIConfig `mapstructure:"api"`

	// Push channel configuration
	Push PushConfig `mapstructure:"push"`

	// Poll fallback configuration
	Poll PollConfig `mapstructure:"poll"`

	// Monitoring configuration
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
}

// APIConfig holds remote access gateway configuration
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"`
}

// RequestTimeout returns the per-request timeout as a duration
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// PushConfig holds push channel configuration
type PushConfig struct {
	URL            string `mapstructure:"url"`
	InitialBackoff int    `mapstructure:"initial_backoff"`
	MaxBackoff     int    `mapstructure:"max_backoff"`
	PingInterval   int    `mapstructure:"ping_interval"`
}

// InitialBackoffDuration returns the first reconnect delay
func (c PushConfig) InitialBackoffDuration() time.Duration {
	return time.Duration(c.InitialBackoff) * time.Second
}

// MaxBackoffDuration returns the reconnect delay cap
func (c PushConfig) MaxBackoffDuration() time.Duration {
	return time.Duration(c.MaxBackoff) * time.Second
}

// PingIntervalDuration returns the idle liveness probe interval
func (c PushConfig) PingIntervalDuration() time.Duration {
	return time.Duration(c.PingInterval) * time.Second
}

// PollConfig holds poll fallback configuration, in seconds per view
type PollConfig struct {
	DisplayInterval int `mapstructure:"display_interval"`
	DoctorInterval  int `mapstructure:"doctor_interval"`
	StaffInterval   int `mapstructure:"staff_interval"`
	LogLimit        int `mapstructure:"log_limit"`
}

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
	Port        int    `mapstructure:"port"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/mediq")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Override with environment variables
	overrideWithEnv(&config)

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// API defaults
	viper.SetDefault("api.base_url", "http://localhost:8000/api")
	viper.SetDefault("api.timeout", 10)

	// Push channel defaults
	viper.SetDefault("push.url", "ws://localhost:8000/socket.io")
	viper.SetDefault("push.initial_backoff", 1)
	viper.SetDefault("push.max_backoff", 5)
	viper.SetDefault("push.ping_interval", 25)

	// Poll fallback defaults
	viper.SetDefault("poll.display_interval", 15)
	viper.SetDefault("poll.doctor_interval", 15)
	viper.SetDefault("poll.staff_interval", 20)
	viper.SetDefault("poll.log_limit", 50)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.port", 9090)
	viper.SetDefault("monitoring.health_path", "/healthz")

	// Logging defaults
	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if apiURL := os.Getenv("MEDIQ_API_URL"); apiURL != "" {
		config.API.BaseURL = apiURL
	}

	if pushURL := os.Getenv("MEDIQ_PUSH_URL"); pushURL != "" {
		config.Push.URL = pushURL
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	if config.Push.URL == "" {
		return fmt.Errorf("push.url is required")
	}

	if config.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if config.Push.InitialBackoff <= 0 || config.Push.MaxBackoff < config.Push.InitialBackoff {
		return fmt.Errorf("push backoff bounds are invalid")
	}

	for name, interval := range map[string]int{
		"poll.display_interval": config.Poll.DisplayInterval,
		"poll.doctor_interval":  config.Poll.DoctorInterval,
		"poll.staff_interval":   config.Poll.StaffInterval,
	} {
		if interval <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	return nil
}
