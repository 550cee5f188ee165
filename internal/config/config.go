// Package config loads service configuration from the environment and
// an optional YAML fleet file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"van-route-service/internal/domain"
)

// Fleet describes the default van fleet and depot. Request payloads may
// override any field per call; these values fill the blanks.
type Fleet struct {
	DepotAddress                     string `yaml:"depot_address"`
	StandardVans                     int    `yaml:"standard_vans"`
	AccessibilityVans                int    `yaml:"accessibility_vans"`
	VanCapacity                      int    `yaml:"van_capacity"`
	AccessibilitySeatsPerVan         int    `yaml:"accessibility_seats_per_van"`
	StandardSeatsPerAccessibilityVan int    `yaml:"standard_seats_per_accessibility_van"`
}

// StandardProfiles expands the fleet settings into one profile per
// standard van.
func (f Fleet) StandardProfiles() []domain.CapacityProfile {
	profiles := make([]domain.CapacityProfile, f.StandardVans)
	for i := range profiles {
		profiles[i] = domain.StandardProfile(f.VanCapacity)
	}
	return profiles
}

// AccessibilityProfiles expands the fleet settings into one profile per
// accessibility van.
func (f Fleet) AccessibilityProfiles() []domain.CapacityProfile {
	profiles := make([]domain.CapacityProfile, f.AccessibilityVans)
	for i := range profiles {
		profiles[i] = domain.AccessibilityProfile(f.AccessibilitySeatsPerVan, f.StandardSeatsPerAccessibilityVan)
	}
	return profiles
}

// Config is everything main needs to wire the service.
type Config struct {
	Port string

	// CacheBackend selects the persistent geocode cache:
	// "sqlite", "postgres", "redis", or "none".
	CacheBackend string
	DatabaseURL  string
	SqlitePath   string
	RedisAddr    string
	RedisTTL     time.Duration

	MapsAPIKey string

	SolveBudget time.Duration
	Balance     float64

	Fleet Fleet
}

// Load reads configuration from the environment, then overlays the
// fleet section from the YAML file named by FLEET_CONFIG if set.
func Load() (*Config, error) {
	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		CacheBackend: getEnv("GEOCODE_CACHE", "sqlite"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SqlitePath:   getEnv("SQLITE_PATH", "data/app.db"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		MapsAPIKey:   os.Getenv("MAPS_API_KEY"),
		Fleet: Fleet{
			DepotAddress:                     os.Getenv("DEPOT_ADDRESS"),
			StandardVans:                     2,
			AccessibilityVans:                1,
			VanCapacity:                      10,
			AccessibilitySeatsPerVan:         6,
			StandardSeatsPerAccessibilityVan: 1,
		},
	}

	var err error
	if cfg.RedisTTL, err = durationEnv("REDIS_TTL", 30*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SolveBudget, err = durationEnv("SOLVE_BUDGET", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.Balance, err = floatEnv("BALANCE_WEIGHT", 3.0); err != nil {
		return nil, err
	}

	if path := os.Getenv("FLEET_CONFIG"); path != "" {
		if err := loadFleetFile(path, &cfg.Fleet); err != nil {
			return nil, err
		}
	}

	switch cfg.CacheBackend {
	case "sqlite", "postgres", "redis", "none":
	default:
		return nil, fmt.Errorf("config: unknown GEOCODE_CACHE %q", cfg.CacheBackend)
	}

	return cfg, nil
}

func loadFleetFile(path string, fleet *Fleet) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read fleet file: %w", err)
	}
	if err := yaml.Unmarshal(raw, fleet); err != nil {
		return fmt.Errorf("config: parse fleet file %q: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return f, nil
}
