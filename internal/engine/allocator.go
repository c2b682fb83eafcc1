package engine

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waypoint-hunt/internal/db"
)

// AssignLocationsToTeams allocates locations to every team of a game and
// returns the number of assignment rows actually created. Route mode hands
// team i route (i mod R) when the game blob configures routes; otherwise
// each team draws a uniform random sample of the game's locations.
// (team, location) pairs that already exist are left untouched, so calling
// this twice never duplicates rows or resets found state.
func (e *Engine) AssignLocationsToTeams(gameID uint) (int, error) {
	created := 0
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var game db.Game
		if err := tx.First(&game, gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGameNotFound
			}
			return err
		}
		var teams []db.Team
		if err := tx.Where("game_id = ?", game.ID).Order("id").Find(&teams).Error; err != nil {
			return err
		}
		if len(teams) == 0 {
			return ErrNoTeams
		}

		data := decodeGameData(game.Data, e.cfg.LocationsPerTeam)
		var err error
		if len(data.Routes) > 0 {
			created, err = e.assignRoutes(tx, game.ID, teams, data.Routes)
		} else {
			created, err = e.assignRandom(tx, game.ID, teams, data.NumLocationsPerTeam)
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	slog.Info("locations assigned", "game_id", gameID, "created", created)
	return created, nil
}

// assignRoutes cycles through the configured routes, wrapping around when
// there are more teams than routes. Assignments are created in route order
// so OrderIndex reflects the designed sequence.
func (e *Engine) assignRoutes(tx *gorm.DB, gameID uint, teams []db.Team, routes [][]uint) (int, error) {
	created := 0
	for i, team := range teams {
		route := routes[i%len(routes)]
		for order, locationID := range route {
			ok, err := createAssignment(tx, gameID, team.ID, locationID, order)
			if err != nil {
				return 0, err
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

// assignRandom draws min(perTeam, total) locations per team, without
// replacement and without weighting.
func (e *Engine) assignRandom(tx *gorm.DB, gameID uint, teams []db.Team, perTeam int) (int, error) {
	var locationIDs []uint
	if err := tx.Model(&db.Location{}).Where("game_id = ?", gameID).Order("id").Pluck("id", &locationIDs).Error; err != nil {
		return 0, err
	}
	created := 0
	for _, team := range teams {
		for order, locationID := range e.sample(locationIDs, perTeam) {
			ok, err := createAssignment(tx, gameID, team.ID, locationID, order)
			if err != nil {
				return 0, err
			}
			if ok {
				created++
			}
		}
	}
	return created, nil
}

// sample draws min(count, len(ids)) ids without replacement.
func (e *Engine) sample(ids []uint, count int) []uint {
	if count > len(ids) {
		count = len(ids)
	}
	e.rndMu.Lock()
	perm := e.rnd.Perm(len(ids))
	e.rndMu.Unlock()
	picked := make([]uint, 0, count)
	for _, idx := range perm[:count] {
		picked = append(picked, ids[idx])
	}
	return picked
}

// createAssignment inserts one assignment row unless the (team, location)
// pair already exists. The unique index plus DO NOTHING keeps concurrent
// creators from producing two rows. Reports whether a row was created.
func createAssignment(tx *gorm.DB, gameID, teamID, locationID uint, order int) (bool, error) {
	record := db.Assignment{
		TeamID:     teamID,
		LocationID: locationID,
		GameID:     gameID,
		OrderIndex: order,
	}
	result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
