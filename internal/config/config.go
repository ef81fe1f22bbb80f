// Package config loads service configuration from defaults, an
// optional YAML file and environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines pipeline configuration.
type Config struct {
	DatabaseURL         string
	MetricsAddr         string
	Timezone            string
	IngestBatchSize     int
	IngestInterval      time.Duration
	AggregationInterval time.Duration
}

// fileConfig is the YAML shape; durations are Go duration strings.
type fileConfig struct {
	DatabaseURL         string `yaml:"database_url"`
	MetricsAddr         string `yaml:"metrics_addr"`
	Timezone            string `yaml:"timezone"`
	IngestBatchSize     int    `yaml:"ingest_batch_size"`
	IngestInterval      string `yaml:"ingest_interval"`
	AggregationInterval string `yaml:"aggregation_interval"`
}

// LoadConfig loads config from yaml and env.
func LoadConfig() (Config, error) {
	cfg := Config{
		MetricsAddr:         ":9090",
		Timezone:            "America/Santo_Domingo",
		IngestBatchSize:     1000,
		IngestInterval:      30 * time.Second,
		AggregationInterval: 15 * time.Minute,
	}

	if path := os.Getenv("NETOLIGHT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, err
		}
		if file.DatabaseURL != "" {
			cfg.DatabaseURL = file.DatabaseURL
		}
		if file.MetricsAddr != "" {
			cfg.MetricsAddr = file.MetricsAddr
		}
		if file.Timezone != "" {
			cfg.Timezone = file.Timezone
		}
		if file.IngestBatchSize > 0 {
			cfg.IngestBatchSize = file.IngestBatchSize
		}
		if file.IngestInterval != "" {
			d, err := time.ParseDuration(file.IngestInterval)
			if err != nil {
				return cfg, fmt.Errorf("ingest_interval: %w", err)
			}
			cfg.IngestInterval = d
		}
		if file.AggregationInterval != "" {
			d, err := time.ParseDuration(file.AggregationInterval)
			if err != nil {
				return cfg, fmt.Errorf("aggregation_interval: %w", err)
			}
			cfg.AggregationInterval = d
		}
	}

	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.MetricsAddr = getenvDefault("METRICS_ADDR", cfg.MetricsAddr)
	cfg.Timezone = getenvDefault("NETOLIGHT_TZ", cfg.Timezone)
	cfg.IngestBatchSize = getenvIntDefault("INGEST_BATCH_SIZE", cfg.IngestBatchSize)
	cfg.IngestInterval = getenvDurationDefault("INGEST_INTERVAL", cfg.IngestInterval)
	cfg.AggregationInterval = getenvDurationDefault("AGGREGATION_INTERVAL", cfg.AggregationInterval)

	if cfg.IngestBatchSize <= 0 {
		cfg.IngestBatchSize = 1000
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDurationDefault(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
