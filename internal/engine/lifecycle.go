package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"waypoint-hunt/internal/db"
)

// StartGame clears a game's existing assignments and allocates fresh ones.
// The clear commits before allocation runs; if allocation then fails the
// deletion is not rolled back and the game is left with no assignments, so
// the caller must restart it.
func (e *Engine) StartGame(gameID uint) (deleted, created int, err error) {
	if err := e.requireGame(gameID); err != nil {
		return 0, 0, err
	}
	// Not tombstoned: the same keys are recreated immediately below, and
	// tombstoning them would block found submissions for the full TTL.
	deleted, err = e.deleteAssignments(gameID, false)
	if err != nil {
		return 0, 0, err
	}
	created, err = e.AssignLocationsToTeams(gameID)
	if err != nil {
		return deleted, 0, fmt.Errorf("assignment step failed: %w", err)
	}
	slog.Info("game started", "game_id", gameID, "deleted", deleted, "created", created)
	return deleted, created, nil
}

// ClearAssignments removes every assignment of a game and reports the
// count. Every deleted key is tombstoned so in-flight found submissions
// cannot silently recreate a row an administrator just removed.
func (e *Engine) ClearAssignments(gameID uint) (int, error) {
	if err := e.requireGame(gameID); err != nil {
		return 0, err
	}
	deleted, err := e.deleteAssignments(gameID, true)
	if err != nil {
		return 0, err
	}
	slog.Info("assignments cleared", "game_id", gameID, "deleted", deleted)
	return deleted, nil
}

// DeleteAssignment removes a single assignment row and tombstones its key.
// This is the admin single-delete path.
func (e *Engine) DeleteAssignment(id uint) error {
	var row db.Assignment
	if err := e.db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		return err
	}
	if err := e.db.Delete(&db.Assignment{}, row.ID).Error; err != nil {
		return err
	}
	e.tombstones.RecordDeletion(AssignmentKey{
		TeamID:     row.TeamID,
		LocationID: row.LocationID,
		GameID:     row.GameID,
	})
	return nil
}

// ResetTeamLocations clears the found flag and timestamp of every
// assignment of a team. Rows are kept and nothing is tombstoned; this is a
// debugging and replay escape hatch, not part of normal play.
func (e *Engine) ResetTeamLocations(teamID uint) (int, error) {
	reset := 0
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var team db.Team
		if err := tx.First(&team, teamID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		result := tx.Model(&db.Assignment{}).
			Where("team_id = ?", team.ID).
			Updates(map[string]any{"found": false, "timestamp_found": nil})
		if result.Error != nil {
			return result.Error
		}
		reset = int(result.RowsAffected)
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.Info("team locations reset", "team_id", teamID, "reset", reset)
	return reset, nil
}

// deleteAssignments deletes all assignments of a game in one transaction,
// all-or-nothing, and tombstones the deleted keys when asked to.
func (e *Engine) deleteAssignments(gameID uint, tombstone bool) (int, error) {
	var keys []AssignmentKey
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var rows []db.Assignment
		if err := tx.Where("game_id = ?", gameID).Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&db.Assignment{}).Error; err != nil {
			return err
		}
		keys = make([]AssignmentKey, 0, len(rows))
		for _, row := range rows {
			keys = append(keys, AssignmentKey{
				TeamID:     row.TeamID,
				LocationID: row.LocationID,
				GameID:     row.GameID,
			})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if tombstone {
		for _, key := range keys {
			e.tombstones.RecordDeletion(key)
		}
	}
	return len(keys), nil
}

func (e *Engine) requireGame(gameID uint) error {
	var game db.Game
	if err := e.db.Select("id").First(&game, gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGameNotFound
		}
		return err
	}
	return nil
}
