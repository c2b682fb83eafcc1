package engine

import (
	"errors"
	"strings"
	"testing"
)

func TestStartGameReplacesAssignments(t *testing.T) {
	e := newTestEngine(t, 1)
	f := newHuntFixture(t, e, 3)

	if _, err := e.MarkFound(f.foundAt(0)); err != nil {
		t.Fatalf("mark found: %v", err)
	}

	deleted, created, err := e.StartGame(f.game.ID)
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	if deleted != 3 || created != 3 {
		t.Fatalf("deleted=%d created=%d, want 3 and 3", deleted, created)
	}

	// Fresh rows: previous found progress is gone.
	rows := teamAssignments(t, e, f.team.ID)
	if len(rows) != 3 {
		t.Fatalf("expected 3 assignments after restart, got %d", len(rows))
	}
	for _, row := range rows {
		if row.Found || row.TimestampFound != nil {
			t.Fatalf("restart kept found state: %+v", row)
		}
	}
}

func TestStartGameDoesNotTombstone(t *testing.T) {
	e := newTestEngine(t, 1)
	f := newHuntFixture(t, e, 1)

	if _, _, err := e.StartGame(f.game.ID); err != nil {
		t.Fatalf("start game: %v", err)
	}
	if n := e.Tombstones().Len(); n != 0 {
		t.Fatalf("restart recorded %d tombstones", n)
	}
	// The recreated assignment is immediately findable.
	if _, err := e.MarkFound(f.foundAt(0)); err != nil {
		t.Fatalf("mark found after restart: %v", err)
	}
}

func TestStartGameAllocationFailure(t *testing.T) {
	e := newTestEngine(t, 1)
	game := createTestGame(t, e, "")
	createTestLocation(t, e, game.ID, "wp", 44.0, -88.0)
	// No teams: the clear commits, then allocation fails.

	_, _, err := e.StartGame(game.ID)
	if !errors.Is(err, ErrNoTeams) {
		t.Fatalf("expected ErrNoTeams, got %v", err)
	}
	if !strings.Contains(err.Error(), "assignment step failed") {
		t.Fatalf("error does not name the failing step: %v", err)
	}
}

func TestStartGameUnknownGame(t *testing.T) {
	e := newTestEngine(t, 1)
	if _, _, err := e.StartGame(999); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestClearAssignmentsTombstones(t *testing.T) {
	e := newTestEngine(t, 1)
	f := newHuntFixture(t, e, 2)

	deleted, err := e.ClearAssignments(f.game.ID)
	if err != nil {
		t.Fatalf("clear assignments: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted=%d, want 2", deleted)
	}
	if n := e.Tombstones().Len(); n != 2 {
		t.Fatalf("expected 2 tombstones, got %d", n)
	}
	if _, err := e.MarkFound(f.foundAt(0)); !errors.Is(err, ErrRecentlyDeleted) {
		t.Fatalf("expected ErrRecentlyDeleted after clear, got %v", err)
	}
}

func TestClearAssignmentsEmptyGame(t *testing.T) {
	e := newTestEngine(t, 1)
	game := createTestGame(t, e, "")
	deleted, err := e.ClearAssignments(game.ID)
	if err != nil {
		t.Fatalf("clear assignments: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted=%d, want 0", deleted)
	}
}

func TestDeleteAssignmentTombstonesKey(t *testing.T) {
	e := newTestEngine(t, 1)
	f := newHuntFixture(t, e, 2)

	rows := teamAssignments(t, e, f.team.ID)
	if err := e.DeleteAssignment(rows[0].ID); err != nil {
		t.Fatalf("delete assignment: %v", err)
	}
	if got := teamAssignments(t, e, f.team.ID); len(got) != 1 {
		t.Fatalf("expected 1 remaining assignment, got %d", len(got))
	}
	if _, err := e.MarkFound(f.foundAt(0)); !errors.Is(err, ErrRecentlyDeleted) {
		t.Fatalf("expected ErrRecentlyDeleted, got %v", err)
	}
	// The untouched sibling is unaffected.
	if _, err := e.MarkFound(f.foundAt(1)); err != nil {
		t.Fatalf("sibling mark found: %v", err)
	}
}

func TestDeleteAssignmentUnknown(t *testing.T) {
	e := newTestEngine(t, 1)
	if err := e.DeleteAssignment(999); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}

func TestResetTeamLocations(t *testing.T) {
	e := newTestEngine(t, 1)
	f := newHuntFixture(t, e, 2)

	for i := 0; i < 2; i++ {
		if _, err := e.MarkFound(f.foundAt(i)); err != nil {
			t.Fatalf("mark found %d: %v", i, err)
		}
	}

	reset, err := e.ResetTeamLocations(f.team.ID)
	if err != nil {
		t.Fatalf("reset team locations: %v", err)
	}
	if reset != 2 {
		t.Fatalf("reset=%d, want 2", reset)
	}
	for _, row := range teamAssignments(t, e, f.team.ID) {
		if row.Found || row.TimestampFound != nil {
			t.Fatalf("reset left found state: %+v", row)
		}
	}
	// Rows survive the reset and stay findable.
	if _, err := e.MarkFound(f.foundAt(0)); err != nil {
		t.Fatalf("mark found after reset: %v", err)
	}
}

func TestResetTeamLocationsUnknownTeam(t *testing.T) {
	e := newTestEngine(t, 1)
	if _, err := e.ResetTeamLocations(999); !errors.Is(err, ErrTeamNotFound) {
		t.Fatalf("expected ErrTeamNotFound, got %v", err)
	}
}
