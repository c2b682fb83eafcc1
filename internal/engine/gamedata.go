package engine

import (
	"encoding/json"

	"gorm.io/datatypes"

	"waypoint-hunt/internal/db"
)

const defaultLocationsPerTeam = 5

// gameData is the slice of the Game configuration blob the engine reads.
// The blob may be absent, empty or partially shaped; every field decodes
// independently and falls back to its default.
type gameData struct {
	Routes              [][]uint
	NumLocationsPerTeam int
}

func decodeGameData(raw datatypes.JSON, fallbackPerTeam int) gameData {
	if fallbackPerTeam <= 0 {
		fallbackPerTeam = defaultLocationsPerTeam
	}
	data := gameData{NumLocationsPerTeam: fallbackPerTeam}
	if len(raw) == 0 {
		return data
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return data
	}
	if rawRoutes, ok := fields["routes"]; ok {
		var routes [][]uint
		if err := json.Unmarshal(rawRoutes, &routes); err == nil {
			data.Routes = routes
		}
	}
	if rawCount, ok := fields["num_locations_per_team"]; ok {
		var count int
		if err := json.Unmarshal(rawCount, &count); err == nil && count > 0 {
			data.NumLocationsPerTeam = count
		}
	}
	return data
}

// GameRoutes returns the routes configured in the game's data blob, or nil.
func GameRoutes(game *db.Game) [][]uint {
	return decodeGameData(game.Data, 0).Routes
}

// SetGameRoutes replaces the routes list inside the game's data blob while
// preserving any other configuration keys.
func SetGameRoutes(game *db.Game, routes [][]uint) error {
	fields := map[string]json.RawMessage{}
	if len(game.Data) > 0 {
		if err := json.Unmarshal(game.Data, &fields); err != nil {
			fields = map[string]json.RawMessage{}
		}
	}
	encoded, err := json.Marshal(routes)
	if err != nil {
		return err
	}
	fields["routes"] = encoded
	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	game.Data = datatypes.JSON(merged)
	return nil
}
