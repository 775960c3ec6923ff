package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/hatrick/crease/internal/cache"
	"github.com/hatrick/crease/internal/stats"
	"github.com/hatrick/crease/internal/store"
)

// GoalieRepository handles goalie season stat access with the same caching
// contract as the skater repository.
type GoalieRepository struct {
	db       *store.Database
	cache    *cache.RedisCache
	cacheTTL time.Duration
}

// NewGoalieRepository creates a new goalie repository. cache may be nil.
func NewGoalieRepository(db *store.Database, c *cache.RedisCache, cacheTTL time.Duration) *GoalieRepository {
	return &GoalieRepository{db: db, cache: c, cacheTTL: cacheTTL}
}

// ListSeason returns every goalie stat line for one season and stored
// report type, name order. NULL rate columns surface as nil pointers, never
// as zero values.
func (r *GoalieRepository) ListSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Goalie, error) {
	key := cache.ListingKey("goalies", string(report), season)
	if r.cache != nil {
		var cached []stats.Goalie
		err := r.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsMiss(err) {
			log.Printf("⚠️  Goalie listing cache read failed (%s): %v", key, err)
		}
	}

	query := `
		SELECT name, season, report, games, wins, saves, shutouts, goals,
			assists, points, penalties, ppp, shp, gaa, save_percent
		FROM goalie_season_stats
		WHERE season = $1 AND report = $2
		ORDER BY name
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, string(report))
	if err != nil {
		return nil, fmt.Errorf("querying goalie season %d (%s): %w", season, report, err)
	}
	defer rows.Close()

	goalies, err := r.scanGoalies(rows)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, goalies, r.cacheTTL); err != nil {
			log.Printf("⚠️  Goalie listing cache write failed (%s): %v", key, err)
		}
	}
	return goalies, nil
}

// Seasons returns the distinct seasons with any goalie rows, ascending.
func (r *GoalieRepository) Seasons(ctx context.Context) ([]int, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT DISTINCT season FROM goalie_season_stats ORDER BY season`)
	if err != nil {
		return nil, fmt.Errorf("querying goalie seasons: %w", err)
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

// UpsertBatch writes a file's worth of goalie rows in one transaction and
// invalidates the listing cache keys it touched.
func (r *GoalieRepository) UpsertBatch(ctx context.Context, rows []store.GoalieSeasonRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning goalie upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO goalie_season_stats (name, season, report, team_id,
			games, wins, saves, shutouts, goals, assists, points, penalties, ppp, shp, gaa, save_percent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (name, season, report) DO UPDATE SET
			team_id = EXCLUDED.team_id,
			games = EXCLUDED.games,
			wins = EXCLUDED.wins,
			saves = EXCLUDED.saves,
			shutouts = EXCLUDED.shutouts,
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			points = EXCLUDED.points,
			penalties = EXCLUDED.penalties,
			ppp = EXCLUDED.ppp,
			shp = EXCLUDED.shp,
			gaa = EXCLUDED.gaa,
			save_percent = EXCLUDED.save_percent,
			updated_at = NOW()
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing goalie upsert: %w", err)
	}
	defer stmt.Close()

	touched := make(map[string]struct{})
	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Name, row.Season, row.Report, row.TeamID,
			row.Games, row.Wins, row.Saves, row.Shutouts, row.Goals,
			row.Assists, row.Points, row.Penalties, row.PPP, row.SHP,
			row.GAA, row.SavePercent,
		)
		if err != nil {
			return fmt.Errorf("upserting goalie %s (%d %s): %w", row.Name, row.Season, row.Report, err)
		}
		touched[cache.ListingKey("goalies", row.Report, row.Season)] = struct{}{}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing goalie upsert: %w", err)
	}

	r.invalidate(ctx, touched)
	return nil
}

func (r *GoalieRepository) invalidate(ctx context.Context, keys map[string]struct{}) {
	if r.cache == nil || len(keys) == 0 {
		return
	}
	flat := make([]string, 0, len(keys))
	for k := range keys {
		flat = append(flat, k)
	}
	if err := r.cache.Delete(ctx, flat...); err != nil {
		log.Printf("⚠️  Goalie listing cache invalidation failed: %v", err)
	}
}

// scanGoalies scans listing rows into engine records.
func (r *GoalieRepository) scanGoalies(rows *sql.Rows) ([]stats.Goalie, error) {
	var goalies []stats.Goalie
	for rows.Next() {
		var g stats.Goalie
		var report string
		var gaa, savePct sql.NullFloat64
		err := rows.Scan(
			&g.Name, &g.Season, &report, &g.Games, &g.Wins, &g.Saves,
			&g.Shutouts, &g.Goals, &g.Assists, &g.Points, &g.Penalties,
			&g.PPP, &g.SHP, &gaa, &savePct,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning goalie row: %w", err)
		}
		if gaa.Valid {
			v := gaa.Float64
			g.GAA = &v
		}
		if savePct.Valid {
			v := savePct.Float64
			g.SavePercent = &v
		}
		goalies = append(goalies, g)
	}
	return goalies, rows.Err()
}
