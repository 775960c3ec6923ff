package store

import (
	"database/sql"
	"time"
)

// SkaterSeasonRow is one skater's stored stat line, keyed by
// (name, season, report). Season is the start year of the Fantrax span.
type SkaterSeasonRow struct {
	ID        int            `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Season    int            `json:"season" db:"season"`
	Report    string         `json:"report" db:"report"`
	Position  sql.NullString `json:"position,omitempty" db:"position"`
	TeamID    sql.NullString `json:"team_id,omitempty" db:"team_id"`
	Games     int            `json:"games" db:"games"`
	Goals     int            `json:"goals" db:"goals"`
	Assists   int            `json:"assists" db:"assists"`
	Points    int            `json:"points" db:"points"`
	PlusMinus int            `json:"plus_minus" db:"plus_minus"`
	Penalties int            `json:"penalties" db:"penalties"`
	Shots     int            `json:"shots" db:"shots"`
	PPP       int            `json:"ppp" db:"ppp"`
	SHP       int            `json:"shp" db:"shp"`
	Hits      int            `json:"hits" db:"hits"`
	Blocks    int            `json:"blocks" db:"blocks"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// GoalieSeasonRow is one goalie's stored stat line, keyed by
// (name, season, report). GAA and SavePercent are nullable: a Fantrax
// export cell that failed to parse is stored as NULL, never as zero.
type GoalieSeasonRow struct {
	ID          int             `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Season      int             `json:"season" db:"season"`
	Report      string          `json:"report" db:"report"`
	TeamID      sql.NullString  `json:"team_id,omitempty" db:"team_id"`
	Games       int             `json:"games" db:"games"`
	Wins        int             `json:"wins" db:"wins"`
	Saves       int             `json:"saves" db:"saves"`
	Shutouts    int             `json:"shutouts" db:"shutouts"`
	Goals       int             `json:"goals" db:"goals"`
	Assists     int             `json:"assists" db:"assists"`
	Points      int             `json:"points" db:"points"`
	Penalties   int             `json:"penalties" db:"penalties"`
	PPP         int             `json:"ppp" db:"ppp"`
	SHP         int             `json:"shp" db:"shp"`
	GAA         sql.NullFloat64 `json:"gaa,omitempty" db:"gaa"`
	SavePercent sql.NullFloat64 `json:"save_percent,omitempty" db:"save_percent"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}
