package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	ProximityMeters          float64
	TombstoneTTLSeconds      int
	LocationsPerTeam         int
	NearbyRadiusMeters       float64
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	AdminUser                string
	AdminPass                string
}

func Default() Config {
	return Config{
		ProximityMeters:          30,
		TombstoneTTLSeconds:      3600,
		LocationsPerTeam:         5,
		NearbyRadiusMeters:       1000,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		AdminUser:                "admin",
		AdminPass:                "secret",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PROXIMITY_METERS"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.ProximityMeters = value
		}
	}
	if raw := os.Getenv("TOMBSTONE_TTL_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.TombstoneTTLSeconds = value
		}
	}
	if raw := os.Getenv("LOCATIONS_PER_TEAM"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.LocationsPerTeam = value
		}
	}
	if raw := os.Getenv("NEARBY_RADIUS_METERS"); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value > 0 {
			cfg.NearbyRadiusMeters = value
		}
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("ADMIN_USER"); raw != "" {
		cfg.AdminUser = raw
	}
	if raw := os.Getenv("ADMIN_PASS"); raw != "" {
		cfg.AdminPass = raw
	}
	return cfg
}
