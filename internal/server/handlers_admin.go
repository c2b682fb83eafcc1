package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"waypoint-hunt/internal/db"
	"waypoint-hunt/internal/engine"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type createGameRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Mode         string          `json:"mode"`
	Discoverable string          `json:"discoverable"`
	Data         json.RawMessage `json:"data"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	game := db.Game{
		Name:         req.Name,
		Description:  req.Description,
		Mode:         req.Mode,
		Discoverable: req.Discoverable,
		StartTime:    time.Now().UTC(),
	}
	if game.Mode == "" {
		game.Mode = "open"
	}
	if game.Discoverable == "" {
		game.Discoverable = "public"
	}
	if len(req.Data) > 0 {
		game.Data = datatypes.JSON(req.Data)
	}
	if err := s.db.Create(&game).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"game_id": game.ID})
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	var games []db.Game
	if err := s.db.Order("id").Find(&games).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	results := make([]map[string]any, 0, len(games))
	for _, game := range games {
		results = append(results, map[string]any{
			"id":           game.ID,
			"name":         game.Name,
			"description":  game.Description,
			"mode":         game.Mode,
			"discoverable": game.Discoverable,
		})
	}
	writeJSON(w, http.StatusOK, results)
}

type createLocationRequest struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ClueText  string  `json:"clue_text"`
	ImageURL  string  `json:"image_url"`
}

func (s *Server) handleCreateLocation(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	var req createLocationRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}
	// The geo utility does not validate ranges; the boundary does.
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		writeError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}
	if err := s.requireGameRecord(w, gameID); err != nil {
		return
	}
	location := db.Location{
		GameID:    gameID,
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		ClueText:  req.ClueText,
		ImageURL:  req.ImageURL,
	}
	if err := s.db.Create(&location).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"location_id": location.ID})
}

func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if err := s.requireGameRecord(w, gameID); err != nil {
		return
	}
	var locations []db.Location
	if err := s.db.Where("game_id = ?", gameID).Order("id").Find(&locations).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	results := make([]map[string]any, 0, len(locations))
	for _, loc := range locations {
		results = append(results, map[string]any{
			"id":        loc.ID,
			"name":      loc.Name,
			"latitude":  loc.Latitude,
			"longitude": loc.Longitude,
			"clue":      loc.ClueText,
			"image_url": loc.ImageURL,
		})
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleGetRoutes(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	var game db.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeEngineError(w, engine.ErrGameNotFound)
		} else {
			writeEngineError(w, err)
		}
		return
	}
	routes := engine.GameRoutes(&game)
	if routes == nil {
		routes = [][]uint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}

type setRoutesRequest struct {
	Routes [][]uint `json:"routes"`
}

// handleSetRoutes replaces the designed routes in the game's configuration
// blob. Every referenced location must belong to the game.
func (s *Server) handleSetRoutes(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	var req setRoutesRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var game db.Game
	if err := s.db.First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeEngineError(w, engine.ErrGameNotFound)
		} else {
			writeEngineError(w, err)
		}
		return
	}
	var locationIDs []uint
	if err := s.db.Model(&db.Location{}).Where("game_id = ?", gameID).Pluck("id", &locationIDs).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	known := make(map[uint]struct{}, len(locationIDs))
	for _, id := range locationIDs {
		known[id] = struct{}{}
	}
	for _, route := range req.Routes {
		for _, id := range route {
			if _, ok := known[id]; !ok {
				writeError(w, http.StatusBadRequest, "route references a location outside this game")
				return
			}
		}
	}
	if err := engine.SetGameRoutes(&game, req.Routes); err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.db.Model(&db.Game{}).Where("id = ?", game.ID).Update("data", game.Data).Error; err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": req.Routes})
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	deleted, created, err := s.engine.StartGame(gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "created": created})
}

func (s *Server) handleAssignLocations(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	created, err := s.engine.AssignLocationsToTeams(gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"created": created})
}

func (s *Server) handleClearAssignments(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	deleted, err := s.engine.ClearAssignments(gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted})
}

func (s *Server) handleResetTeamLocations(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid team id")
		return
	}
	reset, err := s.engine.ResetTeamLocations(teamID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reset": reset})
}

func (s *Server) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid assignment id")
		return
	}
	if err := s.engine.DeleteAssignment(id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

type copyLocationsRequest struct {
	SourceGameID uint `json:"source_game_id"`
}

// handleCopyLocations copies every location of the source game into the
// game in the path. Source and destination must differ.
func (s *Server) handleCopyLocations(w http.ResponseWriter, r *http.Request) {
	destID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	var req copyLocationsRequest
	if err := readJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceGameID == destID {
		writeError(w, http.StatusBadRequest, "source and destination games must be different")
		return
	}
	if err := s.requireGameRecord(w, destID); err != nil {
		return
	}
	if err := s.requireGameRecord(w, req.SourceGameID); err != nil {
		return
	}
	copied := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var locations []db.Location
		if err := tx.Where("game_id = ?", req.SourceGameID).Order("id").Find(&locations).Error; err != nil {
			return err
		}
		for _, loc := range locations {
			record := db.Location{
				GameID:    destID,
				Name:      loc.Name,
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				ClueText:  loc.ClueText,
				ImageURL:  loc.ImageURL,
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			copied++
		}
		return nil
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"copied": copied})
}

// requireGameRecord writes a 404 and returns an error when the game does
// not exist.
func (s *Server) requireGameRecord(w http.ResponseWriter, gameID uint) error {
	err := s.db.Select("id").First(&db.Game{}, gameID).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		writeEngineError(w, engine.ErrGameNotFound)
	} else {
		writeEngineError(w, err)
	}
	return err
}
