// Package config provides configuration management for ontoforge.
//
// Configuration is loaded from:
// 1. .env file in the working directory (optional)
// 2. config.yaml file (optional)
// 3. Environment variables (nested keys joined by "_": IDGEN_MACHINE_ID, LOG_LEVEL)
// 4. Default values
//
// Import Path: ontoforge.io/ontoforge/internal/config
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ontoforge.io/ontoforge/internal/idgen"
)

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	IDGen   IDGenConfig   `mapstructure:"idgen"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	API     APIConfig     `mapstructure:"api"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	AllowedOrigins        []string `mapstructure:"allowed_origins"`
	AllowCredentials      bool     `mapstructure:"allow_credentials"`
	UnsafeAllowAllOrigins bool     `mapstructure:"unsafe_allow_all_origins"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// IDGenConfig contains identifier generator settings.
// Every process sharing an ID space needs its own machine id.
type IDGenConfig struct {
	MachineID int `mapstructure:"machine_id"`
	// Epoch is the custom epoch in Unix milliseconds.
	Epoch int64 `mapstructure:"epoch"`
}

// CatalogConfig lists the schema documents loaded at startup.
type CatalogConfig struct {
	Paths       []string `mapstructure:"paths"`
	IncludeBase bool     `mapstructure:"include_base"`
}

// WorkerConfig contains worker pool settings.
type WorkerConfig struct {
	GeneralPoolSize int `mapstructure:"general_pool_size"`
	ExtractPoolSize int `mapstructure:"extract_pool_size"`
}

// APIConfig contains request limits.
type APIConfig struct {
	MaxMintBatch int `mapstructure:"max_mint_batch"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/ontoforge")

	// No prefix: maps nested config idgen.machine_id → IDGEN_MACHINE_ID
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file is optional, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for critical configuration errors.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.IDGen.MachineID < 0 || c.IDGen.MachineID > idgen.MaxMachineID {
		return fmt.Errorf("idgen.machine_id must be in 0-%d, got %d", idgen.MaxMachineID, c.IDGen.MachineID)
	}
	if c.IDGen.Epoch < 0 {
		return fmt.Errorf("idgen.epoch must not be negative")
	}
	if c.IDGen.Epoch > time.Now().UnixMilli() {
		return fmt.Errorf("idgen.epoch %d is in the future", c.IDGen.Epoch)
	}
	if c.Worker.GeneralPoolSize <= 0 || c.Worker.ExtractPoolSize <= 0 {
		return fmt.Errorf("worker pool sizes must be positive")
	}
	if c.API.MaxMintBatch <= 0 {
		return fmt.Errorf("api.max_mint_batch must be positive")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.allow_credentials", true)
	v.SetDefault("server.unsafe_allow_all_origins", false)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// ID generator
	v.SetDefault("idgen.machine_id", 0)
	v.SetDefault("idgen.epoch", idgen.DefaultEpoch)

	// Catalog
	v.SetDefault("catalog.paths", []string{})
	v.SetDefault("catalog.include_base", true)

	// Worker pools
	v.SetDefault("worker.general_pool_size", 32)
	v.SetDefault("worker.extract_pool_size", 64)

	// API
	v.SetDefault("api.max_mint_batch", 1000)
}
