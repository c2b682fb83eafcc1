// Package engine implements the location-assignment and progress-tracking
// core of the hunt: allocating locations to teams, validating found
// submissions and computing per-team progress. Everything else (auth, admin
// screens, rendering) lives outside and calls in with validated ids.
package engine

import (
	"math/rand"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultProximityMeters is the maximum accepted distance between a
// player's reported position and the location's coordinate.
const DefaultProximityMeters = 30

// Config holds the engine tunables.
type Config struct {
	// ProximityMeters is the found-claim distance threshold; a measured
	// distance at or below it passes.
	ProximityMeters float64
	// LocationsPerTeam is the random-mode fallback when the game blob does
	// not configure num_locations_per_team.
	LocationsPerTeam int
}

// Engine is the assignment and progress core, backed by the shared store
// and a process-local tombstone cache.
type Engine struct {
	db         *gorm.DB
	tombstones *TombstoneCache
	cfg        Config

	rndMu sync.Mutex
	rnd   *rand.Rand

	now func() time.Time
}

// New builds an Engine. tombstones may be nil for a fresh default cache.
// rnd may be nil for a time-seeded source; tests inject a fixed seed to get
// reproducible random-mode sampling.
func New(conn *gorm.DB, tombstones *TombstoneCache, cfg Config, rnd *rand.Rand) *Engine {
	if cfg.ProximityMeters <= 0 {
		cfg.ProximityMeters = DefaultProximityMeters
	}
	if cfg.LocationsPerTeam <= 0 {
		cfg.LocationsPerTeam = defaultLocationsPerTeam
	}
	if tombstones == nil {
		tombstones = NewTombstoneCache(DefaultTombstoneTTL)
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		db:         conn,
		tombstones: tombstones,
		cfg:        cfg,
		rnd:        rnd,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Tombstones exposes the cache for callers that delete assignment rows
// outside the engine.
func (e *Engine) Tombstones() *TombstoneCache {
	return e.tombstones
}

// lockForUpdate adds a row lock on Postgres. The SQLite test driver has a
// single writer, which gives the same per-row serialization.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
