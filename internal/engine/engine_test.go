package engine

import (
	"math/rand"
	"testing"
	"time"

	"waypoint-hunt/internal/db"

	"gorm.io/datatypes"
)

func newTestEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	conn, err := db.OpenSQLite()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(conn, NewTombstoneCache(time.Hour), Config{ProximityMeters: 30}, rand.New(rand.NewSource(seed)))
}

func createTestGame(t *testing.T, e *Engine, data string) *db.Game {
	t.Helper()
	game := &db.Game{
		Name:         "Fox Crossing",
		Mode:         "open",
		Discoverable: "public",
		StartTime:    time.Now().UTC(),
	}
	if data != "" {
		game.Data = datatypes.JSON(data)
	}
	if err := e.db.Create(game).Error; err != nil {
		t.Fatalf("create game: %v", err)
	}
	return game
}

func createTestLocation(t *testing.T, e *Engine, gameID uint, name string, lat, lon float64) *db.Location {
	t.Helper()
	location := &db.Location{
		GameID:    gameID,
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		ClueText:  "look beneath the leaves",
	}
	if err := e.db.Create(location).Error; err != nil {
		t.Fatalf("create location: %v", err)
	}
	return location
}

func createTestTeam(t *testing.T, e *Engine, gameID uint, name string) *db.Team {
	t.Helper()
	team := &db.Team{
		GameID:    gameID,
		Name:      name,
		StartTime: time.Now().UTC(),
	}
	if err := e.db.Create(team).Error; err != nil {
		t.Fatalf("create team: %v", err)
	}
	return team
}

func setTestRoutes(t *testing.T, e *Engine, game *db.Game, routes [][]uint) {
	t.Helper()
	if err := SetGameRoutes(game, routes); err != nil {
		t.Fatalf("set routes: %v", err)
	}
	if err := e.db.Model(&db.Game{}).Where("id = ?", game.ID).Update("data", game.Data).Error; err != nil {
		t.Fatalf("save routes: %v", err)
	}
}

func teamAssignments(t *testing.T, e *Engine, teamID uint) []db.Assignment {
	t.Helper()
	var rows []db.Assignment
	if err := e.db.Where("team_id = ?", teamID).Order("order_index, id").Find(&rows).Error; err != nil {
		t.Fatalf("load assignments: %v", err)
	}
	return rows
}
