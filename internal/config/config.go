package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvConfigPath names the environment variable holding an explicit config file path
const EnvConfigPath = "AERODROME_CONFIG_PATH"

// Config holds all configuration for the daemon
type Config struct {
	DBPath           string
	HTTPAddr         string
	SnapshotInterval time.Duration
	Log              LogConfig
	Billing          BillingConfig
	Fuel             FuelConfig
	RateLimit        RateLimitConfig
	Seed             SeedConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// BillingConfig holds the flat parking fee per price tier
type BillingConfig struct {
	HighTierFee float64
	LowTierFee  float64
}

type FuelConfig struct {
	EnforceMaxQuantity bool
}

// RateLimitConfig bounds requests per client address
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SeedConfig points at the CSV datasets loaded into empty catalog tables
type SeedConfig struct {
	FuelTypes    string
	ParkingSlots string
	Hangars      string
}

// Load loads configuration from config file and environment variables
func Load() (*Config, error) {
	// A missing .env is fine; variables may come from the real environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	v.SetDefault("db_path", "aerodrome.db")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("snapshot_interval", "1m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("billing.high_tier_fee", 50.0)
	v.SetDefault("billing.low_tier_fee", 20.0)
	v.SetDefault("fuel.enforce_max_quantity", false)
	v.SetDefault("ratelimit.requests_per_second", 20.0)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("seed.fuel_types", "internal/database/datasets/fuel_types.csv")
	v.SetDefault("seed.parking_slots", "internal/database/datasets/parking_slots.csv")
	v.SetDefault("seed.hangars", "internal/database/datasets/hangars.csv")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/aerodrome")
	v.AddConfigPath(".")

	if configPath := os.Getenv(EnvConfigPath); configPath != "" {
		v.SetConfigFile(configPath)
	}

	// Config file not found is OK, defaults and env vars apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("AERODROME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		DBPath:           v.GetString("db_path"),
		HTTPAddr:         v.GetString("http_addr"),
		SnapshotInterval: v.GetDuration("snapshot_interval"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Billing: BillingConfig{
			HighTierFee: v.GetFloat64("billing.high_tier_fee"),
			LowTierFee:  v.GetFloat64("billing.low_tier_fee"),
		},
		Fuel: FuelConfig{
			EnforceMaxQuantity: v.GetBool("fuel.enforce_max_quantity"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("ratelimit.requests_per_second"),
			Burst:             v.GetInt("ratelimit.burst"),
		},
		Seed: SeedConfig{
			FuelTypes:    v.GetString("seed.fuel_types"),
			ParkingSlots: v.GetString("seed.parking_slots"),
			Hangars:      v.GetString("seed.hangars"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate validates the configuration values
func validate(cfg *Config) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}

	if cfg.HTTPAddr == "" {
		return fmt.Errorf("http_addr is required")
	}

	if cfg.SnapshotInterval <= 0 {
		return fmt.Errorf("snapshot_interval must be greater than 0")
	}

	if cfg.Billing.HighTierFee < 0 || cfg.Billing.LowTierFee < 0 {
		return fmt.Errorf("billing tier fees must not be negative")
	}

	if cfg.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("ratelimit.requests_per_second must be greater than 0")
	}

	if cfg.RateLimit.Burst <= 0 {
		return fmt.Errorf("ratelimit.burst must be greater than 0")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
