package engine

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound       = errors.New("game not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrLocationNotFound   = errors.New("location not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrNotAssigned        = errors.New("location not assigned to team")
	ErrNoTeams            = errors.New("game has no teams")
	ErrRecentlyDeleted    = errors.New("assignment recently deleted")
	ErrMissingCoordinates = errors.New("latitude and longitude required")
	ErrForceNotAllowed    = errors.New("force requires an administrator")
)

// DistanceError reports a proximity check that failed. It is an expected
// user-facing outcome, not a system error; Meters lets the caller tell the
// player how far off they are.
type DistanceError struct {
	Meters    float64
	Threshold float64
}

func (e *DistanceError) Error() string {
	return fmt.Sprintf("too far away: %.1f m from location (threshold %.1f m)", e.Meters, e.Threshold)
}
