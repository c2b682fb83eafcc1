package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"waypoint-hunt/internal/db"
	"waypoint-hunt/internal/engine"
	"waypoint-hunt/internal/geo"

	"gorm.io/gorm"
)

type foundRequest struct {
	TeamID     uint     `json:"team_id"`
	LocationID uint     `json:"location_id"`
	GameID     uint     `json:"game_id"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
}

type nearbyRequest struct {
	GameID    uint    `json:"game_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// handleLocationFound is the player-facing found submission. It uses the
// strict policy: a location the team was never assigned is a 404, never an
// implicit new assignment.
func (s *Server) handleLocationFound(w http.ResponseWriter, r *http.Request) {
	var req foundRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.engine.MarkFound(engine.MarkFoundRequest{
		TeamID:     req.TeamID,
		LocationID: req.LocationID,
		GameID:     req.GameID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Policy:     engine.PolicyStrict,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foundResponse(result))
}

// handleLocationFoundForce is the admin override: proximity is skipped and
// the lenient policy applies, matching the legacy simple-submission path.
func (s *Server) handleLocationFoundForce(w http.ResponseWriter, r *http.Request) {
	var req foundRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := s.engine.MarkFound(engine.MarkFoundRequest{
		TeamID:     req.TeamID,
		LocationID: req.LocationID,
		GameID:     req.GameID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		Force:      true,
		Admin:      true,
		Policy:     engine.PolicyLenient,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, foundResponse(result))
}

func foundResponse(result *engine.FoundResult) map[string]any {
	payload := map[string]any{
		"found":           result.Found,
		"already_found":   result.AlreadyFound,
		"timestamp_found": result.TimestampFound,
		"team_progress":   result.Progress,
		"team_completed":  result.TeamCompleted,
	}
	if result.NextLocationID != nil {
		payload["next_location_id"] = *result.NextLocationID
	}
	if result.Distance != nil {
		payload["distance_meters"] = *result.Distance
	}
	return payload
}

func (s *Server) handleTeamProgress(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var team db.Team
	if err := s.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeEngineError(w, engine.ErrTeamNotFound)
		} else {
			writeEngineError(w, err)
		}
		return
	}
	gameID := team.GameID
	if raw := r.URL.Query().Get("game_id"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid game_id")
			return
		}
		gameID = uint(value)
	}
	state, err := s.engine.ComputeState(gameID, teamID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleNearbyLocations returns a game's locations strictly within the
// configured radius of the submitted position, with the distance to each.
func (s *Server) handleNearbyLocations(w http.ResponseWriter, r *http.Request) {
	var req nearbyRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GameID == 0 {
		writeError(w, http.StatusBadRequest, "game_id required")
		return
	}
	if err := s.db.Select("id").First(&db.Game{}, req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeEngineError(w, engine.ErrGameNotFound)
		} else {
			writeEngineError(w, err)
		}
		return
	}
	var locations []db.Location
	if err := s.db.Where("game_id = ?", req.GameID).Order("id").Find(&locations).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	results := make([]map[string]any, 0)
	for _, loc := range locations {
		distance := geo.DistanceMeters(req.Latitude, req.Longitude, loc.Latitude, loc.Longitude)
		if distance < s.cfg.NearbyRadiusMeters {
			results = append(results, map[string]any{
				"id":              loc.ID,
				"name":            loc.Name,
				"clue":            loc.ClueText,
				"latitude":        loc.Latitude,
				"longitude":       loc.Longitude,
				"distance_meters": distance,
			})
		}
	}
	writeJSON(w, http.StatusOK, results)
}

type createTeamRequest struct {
	Name   string `json:"name"`
	GameID uint   `json:"game_id"`
}

func (s *Server) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.GameID == 0 {
		writeError(w, http.StatusBadRequest, "name and game_id required")
		return
	}
	if err := s.db.Select("id").First(&db.Game{}, req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeEngineError(w, engine.ErrGameNotFound)
		} else {
			writeEngineError(w, err)
		}
		return
	}
	team := db.Team{
		Name:      req.Name,
		GameID:    req.GameID,
		StartTime: time.Now().UTC(),
	}
	if err := s.db.Create(&team).Error; err != nil {
		if db.IsUniqueViolation(err) {
			writeError(w, http.StatusConflict, "team name already exists")
			return
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"team_id": team.ID})
}

type joinTeamRequest struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

func (s *Server) handleJoinTeam(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	var req joinTeamRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	if err := s.db.Select("id").First(&db.Team{}, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeEngineError(w, engine.ErrTeamNotFound)
		} else {
			writeEngineError(w, err)
		}
		return
	}
	role := req.Role
	if role == "" {
		role = "member"
	}
	membership := db.TeamMembership{UserID: req.UserID, TeamID: teamID, Role: role}
	if err := s.db.Create(&membership).Error; err != nil {
		// Joining twice is fine; keep the existing membership.
		if !db.IsUniqueViolation(err) {
			writeEngineError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"joined": true, "team_id": teamID})
}
