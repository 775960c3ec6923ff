package repository

import (
	"context"
	"fmt"

	"github.com/hatrick/crease/internal/store"
)

// SeasonRepository answers which seasons have any stored data at all,
// skaters and goalies unioned.
type SeasonRepository struct {
	db *store.Database
}

// NewSeasonRepository creates a new season repository
func NewSeasonRepository(db *store.Database) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// List returns every season with at least one stored stat line, ascending.
func (r *SeasonRepository) List(ctx context.Context) ([]int, error) {
	query := `
		SELECT season FROM skater_season_stats
		UNION
		SELECT season FROM goalie_season_stats
		ORDER BY season
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning season: %w", err)
		}
		seasons = append(seasons, s)
	}
	return seasons, rows.Err()
}

// ListFrom returns seasons at or after startFrom, ascending. A zero
// startFrom returns everything.
func (r *SeasonRepository) ListFrom(ctx context.Context, startFrom int) ([]int, error) {
	seasons, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	if startFrom <= 0 {
		return seasons, nil
	}
	filtered := seasons[:0]
	for _, s := range seasons {
		if s >= startFrom {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}
