// Package config loads application configuration. The machine/material
// catalog lives in its own JSON file (see internal/catalog); this
// package covers everything else.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Ledger  LedgerConfig  `mapstructure:"ledger"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Printer PrinterConfig `mapstructure:"printer"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// OpenBrowser opens the UI in the local browser shortly after
	// startup. Leave off for server deployments.
	OpenBrowser bool `mapstructure:"open_browser"`
}

// CatalogConfig locates the machine/material catalog file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// LedgerConfig locates the CSV ledger.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// UploadsConfig holds upload storage configuration.
type UploadsConfig struct {
	Dir string `mapstructure:"dir"`
}

// PrinterConfig holds receipt printer configuration. An empty Port
// means no printer: submissions still work, receipts are skipped with
// a warning.
type PrinterConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
}

// AdminConfig holds the shared secret gating catalog administration.
type AdminConfig struct {
	Secret string `mapstructure:"secret"`
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

func setDefaults() {
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.open_browser", false)

	viper.SetDefault("catalog.path", "configs/machines.json")
	viper.SetDefault("ledger.path", "data/receipts.csv")
	viper.SetDefault("uploads.dir", "uploads")

	viper.SetDefault("printer.port", "")
	viper.SetDefault("printer.baud_rate", 9600)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

func bindEnvVars() {
	// Sensitive or deployment-specific values from environment
	viper.BindEnv("admin.secret", "ADMIN_SECRET")
	viper.BindEnv("printer.port", "PRINTER_PORT")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Printer.BaudRate <= 0 {
		return fmt.Errorf("printer.baud_rate must be positive")
	}
	return nil
}
