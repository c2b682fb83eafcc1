package engine

import (
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"waypoint-hunt/internal/db"
	"waypoint-hunt/internal/geo"
)

// AssignPolicy controls what a found submission does when the team has no
// assignment on record for the location. Each API surface picks one policy
// and sticks with it.
type AssignPolicy int

const (
	// PolicyStrict rejects submissions for unassigned locations.
	PolicyStrict AssignPolicy = iota
	// PolicyLenient creates the assignment on the fly, marked found
	// immediately. Kept for the legacy simple-submission surface.
	PolicyLenient
)

// MarkFoundRequest is one found submission.
type MarkFoundRequest struct {
	TeamID     uint
	LocationID uint
	GameID     uint
	Latitude   *float64
	Longitude  *float64
	// Force skips the proximity check; only administrators may set it.
	Force  bool
	Admin  bool
	Policy AssignPolicy
}

type TeamProgress struct {
	Found int `json:"found"`
	Total int `json:"total"`
}

// FoundResult is returned on success, including the idempotent
// already-found case.
type FoundResult struct {
	Found          bool
	AlreadyFound   bool
	TimestampFound time.Time
	// Distance is set whenever a proximity check ran.
	Distance       *float64
	Progress       TeamProgress
	NextLocationID *uint
	TeamCompleted  bool
}

// MarkFound records that a team reached a location. The sequence is:
// tombstone check, assignment lookup (policy decides what a miss means),
// idempotent short-circuit for already-found rows, proximity validation
// unless forced by an administrator, then the one-way found transition,
// all inside a single transaction. The returned result carries the team's
// aggregate progress and next unfound location.
func (e *Engine) MarkFound(req MarkFoundRequest) (*FoundResult, error) {
	key := AssignmentKey{TeamID: req.TeamID, LocationID: req.LocationID, GameID: req.GameID}
	if e.tombstones.IsTombstoned(key) {
		return nil, ErrRecentlyDeleted
	}
	if req.Force && !req.Admin {
		return nil, ErrForceNotAllowed
	}

	result := &FoundResult{}
	err := e.db.Transaction(func(tx *gorm.DB) error {
		team, location, err := e.loadTriple(tx, req)
		if err != nil {
			return err
		}

		var assignment db.Assignment
		err = lockForUpdate(tx).
			Where("team_id = ? AND location_id = ?", req.TeamID, req.LocationID).
			First(&assignment).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if req.Policy != PolicyLenient {
				return ErrNotAssigned
			}
			return e.createFound(tx, team, location, result)
		}
		if err != nil {
			return err
		}

		if assignment.Found {
			// Repeated submissions never error and never move the timestamp.
			result.Found = true
			result.AlreadyFound = true
			if assignment.TimestampFound != nil {
				result.TimestampFound = *assignment.TimestampFound
			}
			return e.fillProgress(tx, team, result)
		}

		if !req.Force {
			if req.Latitude == nil || req.Longitude == nil {
				return ErrMissingCoordinates
			}
			distance := geo.DistanceMeters(*req.Latitude, *req.Longitude, location.Latitude, location.Longitude)
			result.Distance = &distance
			if distance > e.cfg.ProximityMeters {
				return &DistanceError{Meters: distance, Threshold: e.cfg.ProximityMeters}
			}
		}

		now := e.now()
		if err := markAssignmentFound(tx, assignment.ID, now); err != nil {
			return err
		}
		result.Found = true
		result.TimestampFound = now
		if err := e.fillProgress(tx, team, result); err != nil {
			return err
		}
		return e.recordCompletion(tx, team, now, result)
	})
	if err != nil {
		return nil, err
	}
	slog.Info("location found",
		"team_id", req.TeamID,
		"location_id", req.LocationID,
		"game_id", req.GameID,
		"already_found", result.AlreadyFound,
		"forced", req.Force,
	)
	return result, nil
}

// ComputeState reads a team's assignments in order. CurrentIndex is the
// position of the first unfound assignment, or the assignment count when
// every location is found; callers must treat that value as "no next
// location" rather than an index.
func (e *Engine) ComputeState(gameID, teamID uint) (*TeamState, error) {
	if err := e.requireGame(gameID); err != nil {
		return nil, err
	}
	var team db.Team
	if err := e.db.First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if team.GameID != gameID {
		return nil, ErrTeamNotFound
	}
	var rows []db.Assignment
	if err := e.db.Where("team_id = ? AND game_id = ?", teamID, gameID).
		Order("order_index, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	state := &TeamState{
		CurrentIndex: len(rows),
		Locations:    make([]LocationState, 0, len(rows)),
	}
	for i, row := range rows {
		if !row.Found && state.CurrentIndex == len(rows) {
			state.CurrentIndex = i
		}
		state.Locations = append(state.Locations, LocationState{
			LocationID:     row.LocationID,
			Found:          row.Found,
			TimestampFound: row.TimestampFound,
		})
	}
	return state, nil
}

type LocationState struct {
	LocationID     uint       `json:"location_id"`
	Found          bool       `json:"found"`
	TimestampFound *time.Time `json:"timestamp_found,omitempty"`
}

type TeamState struct {
	CurrentIndex int             `json:"current_index"`
	Locations    []LocationState `json:"locations_found"`
}

// loadTriple resolves the request ids, distinguishing unknown entities from
// a triple whose game ids do not line up.
func (e *Engine) loadTriple(tx *gorm.DB, req MarkFoundRequest) (*db.Team, *db.Location, error) {
	var game db.Game
	if err := tx.Select("id").First(&game, req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrGameNotFound
		}
		return nil, nil, err
	}
	var team db.Team
	if err := tx.First(&team, req.TeamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, err
	}
	var location db.Location
	if err := tx.First(&location, req.LocationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrLocationNotFound
		}
		return nil, nil, err
	}
	if team.GameID != req.GameID || location.GameID != req.GameID {
		return nil, nil, ErrNotAssigned
	}
	return &team, &location, nil
}

// createFound is the lenient path: no assignment exists for the pair, so
// one is created on the fly marked found. A concurrent submission racing
// this insert loses the DO NOTHING and reuses the winner's row.
func (e *Engine) createFound(tx *gorm.DB, team *db.Team, location *db.Location, result *FoundResult) error {
	now := e.now()
	var maxOrder int
	if err := tx.Model(&db.Assignment{}).
		Where("team_id = ?", team.ID).
		Select("COALESCE(MAX(order_index), -1)").
		Scan(&maxOrder).Error; err != nil {
		return err
	}
	record := db.Assignment{
		TeamID:         team.ID,
		LocationID:     location.ID,
		GameID:         team.GameID,
		Found:          true,
		TimestampFound: &now,
		OrderIndex:     maxOrder + 1,
	}
	insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if insert.Error != nil {
		return insert.Error
	}
	if insert.RowsAffected == 0 {
		var existing db.Assignment
		if err := lockForUpdate(tx).
			Where("team_id = ? AND location_id = ?", team.ID, location.ID).
			First(&existing).Error; err != nil {
			return err
		}
		if existing.Found {
			result.Found = true
			result.AlreadyFound = true
			if existing.TimestampFound != nil {
				result.TimestampFound = *existing.TimestampFound
			}
			return e.fillProgress(tx, team, result)
		}
		if err := markAssignmentFound(tx, existing.ID, now); err != nil {
			return err
		}
	}
	result.Found = true
	result.TimestampFound = now
	if err := e.fillProgress(tx, team, result); err != nil {
		return err
	}
	return e.recordCompletion(tx, team, now, result)
}

// markAssignmentFound flips the one-way found transition; both fields are
// written together so a persistence failure never leaves them split.
func markAssignmentFound(tx *gorm.DB, id uint, now time.Time) error {
	return tx.Model(&db.Assignment{}).
		Where("id = ?", id).
		Updates(map[string]any{"found": true, "timestamp_found": now}).Error
}

// fillProgress computes found/total and the next unfound location in
// assignment order.
func (e *Engine) fillProgress(tx *gorm.DB, team *db.Team, result *FoundResult) error {
	var rows []db.Assignment
	if err := tx.Where("team_id = ?", team.ID).Order("order_index, id").Find(&rows).Error; err != nil {
		return err
	}
	found := 0
	for _, row := range rows {
		if row.Found {
			found++
		} else if result.NextLocationID == nil {
			locationID := row.LocationID
			result.NextLocationID = &locationID
		}
	}
	result.Progress = TeamProgress{Found: found, Total: len(rows)}
	return nil
}

// recordCompletion sets the team's end time the first time its last
// assignment flips to found. The guard in the WHERE clause keeps the
// transition one-way under concurrent submissions.
func (e *Engine) recordCompletion(tx *gorm.DB, team *db.Team, now time.Time, result *FoundResult) error {
	if result.Progress.Total == 0 || result.Progress.Found != result.Progress.Total {
		return nil
	}
	updated := tx.Model(&db.Team{}).
		Where("id = ? AND end_time IS NULL", team.ID).
		Update("end_time", now)
	if updated.Error != nil {
		return updated.Error
	}
	if updated.RowsAffected > 0 {
		result.TeamCompleted = true
		slog.Info("team completed", "team_id", team.ID, "game_id", team.GameID)
	}
	return nil
}
