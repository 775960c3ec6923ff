package fantrax

import (
	"log"
	"time"

	"github.com/hatrick/crease/internal/store"
)

// Reconciler collapses duplicate player rows collected from multiple team
// exports. A player traded mid-season appears in every export of the teams
// he played for, so a full league sweep yields the same (name, season,
// report) more than once.
type Reconciler struct {
	strategy Strategy
	metrics  *Metrics
}

// Strategy defines how to resolve a duplicate pair
type Strategy string

const (
	// PreferMostGames keeps the row with the higher games-played total
	// (default). Exports taken mid-sweep can lag each other by a game
	// or two, and the fuller line is the current one.
	PreferMostGames Strategy = "prefer_most_games"

	// PreferFirst keeps whichever row was seen first
	PreferFirst Strategy = "prefer_first"
)

// Metrics tracks reconciliation statistics
type Metrics struct {
	RowsSeen   int
	Duplicates int
	RowsKept   int
	LastRun    time.Time
}

// NewReconciler creates a new reconciler
func NewReconciler(strategy Strategy) *Reconciler {
	if strategy == "" {
		strategy = PreferMostGames
	}

	return &Reconciler{
		strategy: strategy,
		metrics:  &Metrics{},
	}
}

// Skaters collapses duplicate skater rows, preserving first-seen order
func (r *Reconciler) Skaters(rows []store.SkaterSeasonRow) []store.SkaterSeasonRow {
	r.metrics.LastRun = time.Now()

	index := make(map[string]int, len(rows))
	kept := make([]store.SkaterSeasonRow, 0, len(rows))

	for _, row := range rows {
		r.metrics.RowsSeen++

		at, seen := index[row.Name]
		if !seen {
			index[row.Name] = len(kept)
			kept = append(kept, row)
			continue
		}

		r.metrics.Duplicates++
		if r.replaces(row.Games, kept[at].Games) {
			kept[at] = row
		}
	}

	if dropped := len(rows) - len(kept); dropped > 0 {
		log.Printf("  Reconciled %d duplicate skater rows (%d kept)", dropped, len(kept))
	}
	r.metrics.RowsKept += len(kept)
	return kept
}

// Goalies collapses duplicate goalie rows, preserving first-seen order
func (r *Reconciler) Goalies(rows []store.GoalieSeasonRow) []store.GoalieSeasonRow {
	r.metrics.LastRun = time.Now()

	index := make(map[string]int, len(rows))
	kept := make([]store.GoalieSeasonRow, 0, len(rows))

	for _, row := range rows {
		r.metrics.RowsSeen++

		at, seen := index[row.Name]
		if !seen {
			index[row.Name] = len(kept)
			kept = append(kept, row)
			continue
		}

		r.metrics.Duplicates++
		if r.replaces(row.Games, kept[at].Games) {
			kept[at] = row
		}
	}

	if dropped := len(rows) - len(kept); dropped > 0 {
		log.Printf("  Reconciled %d duplicate goalie rows (%d kept)", dropped, len(kept))
	}
	r.metrics.RowsKept += len(kept)
	return kept
}

// replaces reports whether a duplicate row should displace the one already
// kept.
func (r *Reconciler) replaces(challenger, incumbent int) bool {
	switch r.strategy {
	case PreferFirst:
		return false
	case PreferMostGames:
		return challenger > incumbent
	default:
		return challenger > incumbent
	}
}

// GetMetrics returns current reconciliation statistics
func (r *Reconciler) GetMetrics() Metrics {
	return *r.metrics
}
