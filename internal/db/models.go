package db

import (
	"time"

	"gorm.io/datatypes"
)

// Game is one scavenger hunt. Data is a free-form configuration blob; the
// engine reads "routes" and "num_locations_per_team" out of it and ignores
// the rest.
type Game struct {
	ID           uint      `gorm:"primaryKey"`
	Name         string    `gorm:"size:100;not null"`
	Description  string    `gorm:"size:1000"`
	Mode         string    `gorm:"size:20;not null;default:open"`
	Discoverable string    `gorm:"size:20;not null;default:public"`
	StartTime    time.Time `gorm:"not null"`
	JoinDeadline *time.Time
	Data         datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
	Locations    []Location
	Teams        []Team
	Assignments  []Assignment
}

type Location struct {
	ID        uint      `gorm:"primaryKey"`
	GameID    uint      `gorm:"index;not null"`
	Name      string    `gorm:"size:100;not null"`
	Latitude  float64   `gorm:"not null"`
	Longitude float64   `gorm:"not null"`
	ClueText  string    `gorm:"size:1000"`
	ImageURL  string    `gorm:"size:300"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Team belongs to exactly one game. EndTime is set once, when the team's
// last assigned location is found.
type Team struct {
	ID           uint      `gorm:"primaryKey"`
	GameID       uint      `gorm:"not null;uniqueIndex:idx_teams_game_name"`
	Name         string    `gorm:"size:100;not null;uniqueIndex:idx_teams_game_name"`
	StartTime    time.Time `gorm:"not null"`
	EndTime      *time.Time
	Discoverable bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
	Memberships  []TeamMembership
	Assignments  []Assignment
}

// TeamMembership links an externally managed user id to a team. User
// records themselves live outside this service.
type TeamMembership struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_memberships_user_team"`
	TeamID    uint      `gorm:"not null;uniqueIndex:idx_memberships_user_team"`
	Role      string    `gorm:"size:20;not null;default:member"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Assignment is a team's obligation to find one location in one game.
// GameID is denormalized from the team for fast per-game filtering and must
// always equal the team's game id. At most one row may exist per
// (team, location) pair; inserts rely on the unique index to stay
// race-safe.
type Assignment struct {
	ID             uint `gorm:"primaryKey"`
	TeamID         uint `gorm:"not null;uniqueIndex:idx_assignments_team_location"`
	LocationID     uint `gorm:"not null;uniqueIndex:idx_assignments_team_location"`
	GameID         uint `gorm:"index;not null"`
	Found          bool `gorm:"not null;default:false"`
	TimestampFound *time.Time
	OrderIndex     int       `gorm:"not null;default:0"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
