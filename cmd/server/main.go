package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"waypoint-hunt/internal/config"
	"waypoint-hunt/internal/db"
	"waypoint-hunt/internal/engine"
	"waypoint-hunt/internal/server"

	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	})))

	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("failed to load .env", "error", err)
	}
	cfg := config.Load()

	conn, err := db.Open()
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		slog.Error("database handle unavailable", "error", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetimeSeconds) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTimeSeconds) * time.Second)

	if err := db.Migrate(conn); err != nil {
		slog.Error("database migration failed", "error", err)
		os.Exit(1)
	}

	tombstones := engine.NewTombstoneCache(time.Duration(cfg.TombstoneTTLSeconds) * time.Second)
	eng := engine.New(conn, tombstones, engine.Config{
		ProximityMeters:  cfg.ProximityMeters,
		LocationsPerTeam: cfg.LocationsPerTeam,
	}, nil)
	srv := server.New(conn, eng, cfg)

	addr := ":8080"
	if env := os.Getenv("PORT"); env != "" {
		addr = ":" + env
	}
	slog.Info("waypoint-hunt server listening", "addr", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
