package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"waypoint-hunt/internal/engine"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// pathID parses the {id} segment of the request path.
func pathID(r *http.Request) (uint, bool) {
	value, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}

// writeEngineError maps the engine's failure taxonomy onto HTTP statuses.
// A failed proximity check is not an error to the player: it comes back as
// 200 with the measured distance so the client can show how far off they
// are.
func writeEngineError(w http.ResponseWriter, err error) {
	var tooFar *engine.DistanceError
	switch {
	case errors.As(err, &tooFar):
		writeJSON(w, http.StatusOK, map[string]any{
			"found":            false,
			"too_far":          true,
			"distance_meters":  tooFar.Meters,
			"threshold_meters": tooFar.Threshold,
		})
	case errors.Is(err, engine.ErrRecentlyDeleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, engine.ErrForceNotAllowed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, engine.ErrMissingCoordinates),
		errors.Is(err, engine.ErrNoTeams):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrGameNotFound),
		errors.Is(err, engine.ErrTeamNotFound),
		errors.Is(err, engine.ErrLocationNotFound),
		errors.Is(err, engine.ErrAssignmentNotFound),
		errors.Is(err, engine.ErrNotAssigned):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
