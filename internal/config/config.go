// Package config loads service settings from the environment with an
// optional YAML overlay for deployments that prefer a file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"fieldcare-dispatch-service/internal/domain"
)

// Config is everything the dispatch service needs at startup.
type Config struct {
	Port     string `yaml:"port"`
	DBPath   string `yaml:"db_path"`
	DBURL    string `yaml:"db_url"` // optional shared Postgres distance cache
	SeedPath string `yaml:"seed_path"`
	RedisURL string `yaml:"redis_url"`

	ProviderAPIKey  string  `yaml:"provider_api_key"`
	ProviderBaseURL string  `yaml:"provider_base_url"`
	CallsPerSecond  int     `yaml:"calls_per_second"`
	CallsPerDay     int     `yaml:"calls_per_day"`
	OfficeLat       float64 `yaml:"office_lat"`
	OfficeLng       float64 `yaml:"office_lng"`

	ConflictPolicy string `yaml:"conflict_policy"` // warn, downgrade, reject
}

// Get returns an environment variable or a fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Load reads settings from the environment. When CONFIG_FILE points at a
// YAML file, its values take precedence over the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            Get("PORT", "8080"),
		DBPath:          Get("DB_PATH", "data/dispatch.db"),
		DBURL:           os.Getenv("DATABASE_URL"),
		SeedPath:        Get("SEED_PATH", "data/seeds/records.json"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ProviderAPIKey:  os.Getenv("MAPS_API_KEY"),
		ProviderBaseURL: os.Getenv("MAPS_BASE_URL"),
		CallsPerSecond:  getInt("MAPS_CALLS_PER_SECOND", 10),
		CallsPerDay:     getInt("MAPS_CALLS_PER_DAY", 25000),
		OfficeLat:       getFloat("OFFICE_LAT", 0),
		OfficeLng:       getFloat("OFFICE_LNG", 0),
		ConflictPolicy:  Get("CONFLICT_POLICY", "downgrade"),
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	switch cfg.ConflictPolicy {
	case "warn", "downgrade", "reject":
	default:
		return nil, fmt.Errorf("load config: unknown CONFLICT_POLICY %q", cfg.ConflictPolicy)
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("load config: parse %q: %w", path, err)
	}
	return nil
}

// OfficeOverride returns configured office coordinates, or nil to use the
// built-in default.
func (c *Config) OfficeOverride() *domain.Coordinates {
	if c.OfficeLat == 0 && c.OfficeLng == 0 {
		return nil
	}
	co := domain.Coordinates{Lat: c.OfficeLat, Lng: c.OfficeLng}
	if !co.Valid() {
		return nil
	}
	return &co
}
