// Package stats implements cohort-relative scoring of fantasy-hockey season
// statistics: normalized 0-100 per-field contributions, weighted totals,
// position-relative variants, and multi-season combination.
//
// The package performs no I/O. Callers load season listings, hand them to an
// Engine, and attach the returned scored copies to their responses.
package stats

import "fmt"

// ReportType selects which slice of a season a listing covers.
type ReportType string

const (
	ReportRegular  ReportType = "regular"
	ReportPlayoffs ReportType = "playoffs"
	// ReportBoth is a derived view: regular and playoff counting stats are
	// summed per player. Goalie rate stats (gaa, savePercent) do not survive
	// the merge.
	ReportBoth ReportType = "both"
)

// ParseReportType validates a report type coming off the wire.
func ParseReportType(s string) (ReportType, error) {
	switch ReportType(s) {
	case ReportRegular, ReportPlayoffs, ReportBoth:
		return ReportType(s), nil
	}
	return "", fmt.Errorf("unknown report type %q (want regular, playoffs or both)", s)
}

// StorageReports lists the report types that exist as stored rows. ReportBoth
// is computed from these at read time.
func StorageReports() []ReportType {
	return []ReportType{ReportRegular, ReportPlayoffs}
}

// Skater is one player's stat line for a single season and report type.
// Counting stats come straight from the league export; score fields are
// attached by the Engine and are never stored or summed.
//
// Season is the start year of the span (2012 means the 2012-2013 season). A
// zero Season marks a multi-season total and is omitted from JSON.
type Skater struct {
	Name     string `json:"name"`
	Season   int    `json:"season,omitempty"`
	Position string `json:"position,omitempty"`

	Games     int `json:"games"`
	Goals     int `json:"goals"`
	Assists   int `json:"assists"`
	Points    int `json:"points"`
	PlusMinus int `json:"plusMinus"`
	Penalties int `json:"penalties"`
	Shots     int `json:"shots"`
	PPP       int `json:"ppp"`
	SHP       int `json:"shp"`
	Hits      int `json:"hits"`
	Blocks    int `json:"blocks"`

	// Whole-cohort scores.
	Score                float64            `json:"score"`
	ScoreAdjustedByGames float64            `json:"scoreAdjustedByGames"`
	Scores               map[string]float64 `json:"scores,omitempty"`

	// Position-cohort scores. Nil when the record carries no position.
	ScoreByPosition                *float64           `json:"scoreByPosition,omitempty"`
	ScoreByPositionAdjustedByGames *float64           `json:"scoreByPositionAdjustedByGames,omitempty"`
	ScoresByPosition               map[string]float64 `json:"scoresByPosition,omitempty"`
}

// Goalie is one goalie's stat line for a single season and report type.
// GAA and SavePercent are parsed once at the ingestion boundary; nil means
// the export had no usable value. They are present only on single-season,
// single-report views.
type Goalie struct {
	Name   string `json:"name"`
	Season int    `json:"season,omitempty"`

	Games     int `json:"games"`
	Wins      int `json:"wins"`
	Saves     int `json:"saves"`
	Shutouts  int `json:"shutouts"`
	Goals     int `json:"goals"`
	Assists   int `json:"assists"`
	Points    int `json:"points"`
	Penalties int `json:"penalties"`
	PPP       int `json:"ppp"`
	SHP       int `json:"shp"`

	GAA         *float64 `json:"gaa,omitempty"`
	SavePercent *float64 `json:"savePercent,omitempty"`

	Score                float64            `json:"score"`
	ScoreAdjustedByGames float64            `json:"scoreAdjustedByGames"`
	Scores               map[string]float64 `json:"scores,omitempty"`
}

// CombinedSkater is a multi-season total re-scored against the combined
// cohort, plus the per-season snapshots it was built from. Each snapshot
// keeps the score it earned inside its own season's cohort.
type CombinedSkater struct {
	Skater
	Seasons []Skater `json:"seasons"`
}

// CombinedGoalie is the goalie counterpart. The root record never carries
// gaa or savePercent; the per-season snapshots keep theirs.
type CombinedGoalie struct {
	Goalie
	Seasons []Goalie `json:"seasons"`
}

func (s *Skater) resetScores() {
	s.Score = 0
	s.ScoreAdjustedByGames = 0
	s.Scores = nil
}

func (s *Skater) resetPositionScores() {
	s.ScoreByPosition = nil
	s.ScoreByPositionAdjustedByGames = nil
	s.ScoresByPosition = nil
}

func (g *Goalie) resetScores() {
	g.Score = 0
	g.ScoreAdjustedByGames = 0
	g.Scores = nil
}

// addSkaterCounts sums b's counting stats into a. Identity, position and
// score fields are left alone.
func addSkaterCounts(a *Skater, b Skater) {
	a.Games += b.Games
	a.Goals += b.Goals
	a.Assists += b.Assists
	a.Points += b.Points
	a.PlusMinus += b.PlusMinus
	a.Penalties += b.Penalties
	a.Shots += b.Shots
	a.PPP += b.PPP
	a.SHP += b.SHP
	a.Hits += b.Hits
	a.Blocks += b.Blocks
}

// addGoalieCounts sums b's counting stats into a. GAA and SavePercent are
// rates, not counts, and are never summed.
func addGoalieCounts(a *Goalie, b Goalie) {
	a.Games += b.Games
	a.Wins += b.Wins
	a.Saves += b.Saves
	a.Shutouts += b.Shutouts
	a.Goals += b.Goals
	a.Assists += b.Assists
	a.Points += b.Points
	a.Penalties += b.Penalties
	a.PPP += b.PPP
	a.SHP += b.SHP
}
