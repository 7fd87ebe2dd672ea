// Package config loads the engine configuration from YAML and the
// environment. Secrets are only accepted from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Portal    PortalConfig    `mapstructure:"portal"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Output    OutputConfig    `mapstructure:"output"`
	Templates TemplatesConfig `mapstructure:"templates"`
	History   HistoryConfig   `mapstructure:"history"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// PortalConfig holds the bank portal entry point and credentials.
type PortalConfig struct {
	URL      string `mapstructure:"url"`
	Profile  string `mapstructure:"profile"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// BrowserConfig controls the persistent browser context.
type BrowserConfig struct {
	UserDataDir    string        `mapstructure:"user_data_dir"`
	Headless       bool          `mapstructure:"headless"`
	SlowMo         time.Duration `mapstructure:"slow_mo"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
}

// OutputConfig holds the artifact output directory.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// TemplatesConfig holds the reference-image library root.
type TemplatesConfig struct {
	Dir string `mapstructure:"dir"`
}

// HistoryConfig holds the run-history database path. Empty disables the
// history store.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("portal.url", "https://www.chase.com/business")
	viper.SetDefault("portal.profile", "chase_bus")

	viper.SetDefault("browser.headless", false)
	viper.SetDefault("browser.slow_mo", time.Second)
	viper.SetDefault("browser.viewport_width", 1920)
	viper.SetDefault("browser.viewport_height", 1040)

	viper.SetDefault("output.dir", "downloads")
	viper.SetDefault("templates.dir", "photos")
	viper.SetDefault("history.path", "data/runs.db")

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "console")
}

// bindEnvVars binds environment variables to configuration. Credentials are
// only ever supplied this way, never from the config file.
func bindEnvVars() {
	viper.BindEnv("portal.username", "BANK_USER")
	viper.BindEnv("portal.password", "BANK_PASS")
	viper.BindEnv("browser.user_data_dir", "USER_DATA_DIR")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Portal.URL == "" {
		return fmt.Errorf("portal.url is required")
	}
	if c.Portal.Profile == "" {
		return fmt.Errorf("portal.profile is required")
	}
	if c.Portal.Username == "" {
		return fmt.Errorf("portal.username is required (set BANK_USER)")
	}
	if c.Portal.Password == "" {
		return fmt.Errorf("portal.password is required (set BANK_PASS)")
	}
	if c.Browser.UserDataDir == "" {
		return fmt.Errorf("browser.user_data_dir is required (set USER_DATA_DIR)")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Templates.Dir == "" {
		return fmt.Errorf("templates.dir is required")
	}
	return nil
}
