package server

import (
	"net/http"

	"waypoint-hunt/internal/config"
	"waypoint-hunt/internal/engine"

	"gorm.io/gorm"
)

type Server struct {
	db     *gorm.DB
	engine *engine.Engine
	cfg    config.Config
}

func New(conn *gorm.DB, eng *engine.Engine, cfg config.Config) *Server {
	return &Server{db: conn, engine: eng, cfg: cfg}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games", s.handleListGames)
	mux.HandleFunc("GET /api/game/{id}/locations", s.handleListLocations)
	mux.HandleFunc("POST /api/game/{id}/locations", s.handleCreateLocation)
	mux.HandleFunc("GET /api/game/{id}/routes", s.handleGetRoutes)
	mux.HandleFunc("PUT /api/game/{id}/routes", s.requireAdmin(s.handleSetRoutes))
	mux.HandleFunc("POST /api/game/{id}/start_game", s.requireAdmin(s.handleStartGame))
	mux.HandleFunc("POST /api/game/{id}/assign_locations", s.requireAdmin(s.handleAssignLocations))
	mux.HandleFunc("POST /api/game/{id}/clear_assignments", s.requireAdmin(s.handleClearAssignments))
	mux.HandleFunc("POST /api/game/{id}/copy_locations", s.requireAdmin(s.handleCopyLocations))
	mux.HandleFunc("POST /api/teams", s.handleCreateTeam)
	mux.HandleFunc("POST /api/team/{id}/join", s.handleJoinTeam)
	mux.HandleFunc("POST /api/team/{id}/reset_locations", s.requireAdmin(s.handleResetTeamLocations))
	mux.HandleFunc("GET /api/team/{id}/progress", s.handleTeamProgress)
	mux.HandleFunc("POST /api/location/found", s.handleLocationFound)
	mux.HandleFunc("POST /api/location/found/force", s.requireAdmin(s.handleLocationFoundForce))
	mux.HandleFunc("DELETE /api/assignment/{id}", s.requireAdmin(s.handleDeleteAssignment))
	mux.HandleFunc("POST /api/locations/nearby", s.handleNearbyLocations)
	return mux
}
