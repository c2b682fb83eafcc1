package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waypoint-hunt/internal/config"
	"waypoint-hunt/internal/db"
	"waypoint-hunt/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	conn, err := db.OpenSQLite()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := config.Default()
	eng := engine.New(
		conn,
		engine.NewTombstoneCache(time.Hour),
		engine.Config{ProximityMeters: cfg.ProximityMeters, LocationsPerTeam: cfg.LocationsPerTeam},
		rand.New(rand.NewSource(1)),
	)
	return New(conn, eng, cfg)
}

// doJSON performs one request against the mux, optionally with the admin
// basic-auth credentials, and decodes the JSON response body.
func doJSON(t *testing.T, s *Server, method, path string, body any, admin bool) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.SetBasicAuth("admin", "secret")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	payload := map[string]any{}
	if rec.Body.Len() > 0 {
		raw := json.RawMessage{}
		if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
			t.Fatalf("%s %s: invalid JSON response: %v", method, path, err)
		}
		// Array responses are wrapped so callers always get a map.
		if raw[0] == '[' {
			payload["items"] = mustDecodeList(t, raw)
		} else if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, path, err)
		}
	}
	return rec.Code, payload
}

func mustDecodeList(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	var items []map[string]any
	if err := json.Unmarshal(raw, &items); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	return items
}

func createGame(t *testing.T, s *Server) uint {
	t.Helper()
	status, body := doJSON(t, s, http.MethodPost, "/api/games", map[string]any{"name": "campus hunt"}, false)
	if status != http.StatusCreated {
		t.Fatalf("create game: status %d body %v", status, body)
	}
	return uint(body["game_id"].(float64))
}

func createLocation(t *testing.T, s *Server, gameID uint, name string, lat, lon float64) uint {
	t.Helper()
	status, body := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/game/%d/locations", gameID), map[string]any{
		"name":      name,
		"latitude":  lat,
		"longitude": lon,
		"clue_text": "look closely",
	}, false)
	if status != http.StatusCreated {
		t.Fatalf("create location: status %d body %v", status, body)
	}
	return uint(body["location_id"].(float64))
}

func createTeam(t *testing.T, s *Server, gameID uint, name string) uint {
	t.Helper()
	status, body := doJSON(t, s, http.MethodPost, "/api/teams", map[string]any{
		"name": name, "game_id": gameID,
	}, false)
	if status != http.StatusCreated {
		t.Fatalf("create team: status %d body %v", status, body)
	}
	return uint(body["team_id"].(float64))
}

func setRoutes(t *testing.T, s *Server, gameID uint, routes [][]uint) {
	t.Helper()
	status, body := doJSON(t, s, http.MethodPut, fmt.Sprintf("/api/game/%d/routes", gameID), map[string]any{
		"routes": routes,
	}, true)
	if status != http.StatusOK {
		t.Fatalf("set routes: status %d body %v", status, body)
	}
}
