package engine

import (
	"encoding/json"
	"testing"

	"gorm.io/datatypes"

	"waypoint-hunt/internal/db"
)

func TestDecodeGameDataDefaults(t *testing.T) {
	data := decodeGameData(nil, 0)
	if data.NumLocationsPerTeam != 5 {
		t.Fatalf("expected default of 5 locations per team, got %d", data.NumLocationsPerTeam)
	}
	if data.Routes != nil {
		t.Fatalf("expected no routes, got %v", data.Routes)
	}

	data = decodeGameData(datatypes.JSON(`{}`), 7)
	if data.NumLocationsPerTeam != 7 {
		t.Fatalf("expected configured fallback of 7, got %d", data.NumLocationsPerTeam)
	}
}

func TestDecodeGameDataPartialBlob(t *testing.T) {
	raw := datatypes.JSON(`{"num_locations_per_team": 3, "theme": "forest"}`)
	data := decodeGameData(raw, 0)
	if data.NumLocationsPerTeam != 3 {
		t.Fatalf("expected 3, got %d", data.NumLocationsPerTeam)
	}
	if data.Routes != nil {
		t.Fatalf("expected no routes, got %v", data.Routes)
	}
}

func TestDecodeGameDataMalformedRoutes(t *testing.T) {
	// Malformed routes fall back to random mode without losing the
	// per-team count.
	raw := datatypes.JSON(`{"routes": "not-a-list", "num_locations_per_team": 4}`)
	data := decodeGameData(raw, 0)
	if data.Routes != nil {
		t.Fatalf("expected malformed routes to be dropped, got %v", data.Routes)
	}
	if data.NumLocationsPerTeam != 4 {
		t.Fatalf("expected 4, got %d", data.NumLocationsPerTeam)
	}

	if data := decodeGameData(datatypes.JSON(`not json at all`), 0); data.NumLocationsPerTeam != 5 {
		t.Fatalf("expected defaults for a garbage blob, got %+v", data)
	}
}

func TestDecodeGameDataRoutes(t *testing.T) {
	raw := datatypes.JSON(`{"routes": [[1,2],[3,4]]}`)
	data := decodeGameData(raw, 0)
	if len(data.Routes) != 2 || len(data.Routes[0]) != 2 || data.Routes[1][0] != 3 {
		t.Fatalf("unexpected routes: %v", data.Routes)
	}
}

func TestSetGameRoutesPreservesOtherKeys(t *testing.T) {
	game := &db.Game{Data: datatypes.JSON(`{"num_locations_per_team": 3, "theme": "forest"}`)}
	if err := SetGameRoutes(game, [][]uint{{1, 2}, {3}}); err != nil {
		t.Fatalf("set routes: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(game.Data, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"routes", "num_locations_per_team", "theme"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("missing key %q after SetGameRoutes", key)
		}
	}
	routes := GameRoutes(game)
	if len(routes) != 2 || routes[0][1] != 2 || routes[1][0] != 3 {
		t.Fatalf("unexpected routes after round trip: %v", routes)
	}
}
