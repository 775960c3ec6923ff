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

// SkaterRepository handles skater season stat access. Listings are fronted
// by the Redis cache when one is configured; imports invalidate the exact
// (report, season) keys they touch.
type SkaterRepository struct {
	db       *store.Database
	cache    *cache.RedisCache
	cacheTTL time.Duration
}

// NewSkaterRepository creates a new skater repository. cache may be nil.
func NewSkaterRepository(db *store.Database, c *cache.RedisCache, cacheTTL time.Duration) *SkaterRepository {
	return &SkaterRepository{db: db, cache: c, cacheTTL: cacheTTL}
}

// ListSeason returns every skater stat line for one season and stored
// report type, name order.
func (r *SkaterRepository) ListSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Skater, error) {
	key := cache.ListingKey("skaters", string(report), season)
	if r.cache != nil {
		var cached []stats.Skater
		err := r.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !cache.IsMiss(err) {
			log.Printf("⚠️  Skater listing cache read failed (%s): %v", key, err)
		}
	}

	query := `
		SELECT name, season, report, position, games, goals, assists, points,
			plus_minus, penalties, shots, ppp, shp, hits, blocks
		FROM skater_season_stats
		WHERE season = $1 AND report = $2
		ORDER BY name
	`

	rows, err := r.db.DB().QueryContext(ctx, query, season, string(report))
	if err != nil {
		return nil, fmt.Errorf("querying skater season %d (%s): %w", season, report, err)
	}
	defer rows.Close()

	skaters, err := r.scanSkaters(rows)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.SetJSON(ctx, key, skaters, r.cacheTTL); err != nil {
			log.Printf("⚠️  Skater listing cache write failed (%s): %v", key, err)
		}
	}
	return skaters, nil
}

// Seasons returns the distinct seasons with any skater rows, ascending.
func (r *SkaterRepository) Seasons(ctx context.Context) ([]int, error) {
	rows, err := r.db.DB().QueryContext(ctx, `SELECT DISTINCT season FROM skater_season_stats ORDER BY season`)
	if err != nil {
		return nil, fmt.Errorf("querying skater seasons: %w", err)
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

// UpsertBatch writes a file's worth of skater rows in one transaction and
// invalidates the listing cache keys it touched.
func (r *SkaterRepository) UpsertBatch(ctx context.Context, rows []store.SkaterSeasonRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning skater upsert: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO skater_season_stats (name, season, report, position, team_id,
			games, goals, assists, points, plus_minus, penalties, shots, ppp, shp, hits, blocks)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (name, season, report) DO UPDATE SET
			position = EXCLUDED.position,
			team_id = EXCLUDED.team_id,
			games = EXCLUDED.games,
			goals = EXCLUDED.goals,
			assists = EXCLUDED.assists,
			points = EXCLUDED.points,
			plus_minus = EXCLUDED.plus_minus,
			penalties = EXCLUDED.penalties,
			shots = EXCLUDED.shots,
			ppp = EXCLUDED.ppp,
			shp = EXCLUDED.shp,
			hits = EXCLUDED.hits,
			blocks = EXCLUDED.blocks,
			updated_at = NOW()
	`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing skater upsert: %w", err)
	}
	defer stmt.Close()

	touched := make(map[string]struct{})
	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.Name, row.Season, row.Report, row.Position, row.TeamID,
			row.Games, row.Goals, row.Assists, row.Points, row.PlusMinus,
			row.Penalties, row.Shots, row.PPP, row.SHP, row.Hits, row.Blocks,
		)
		if err != nil {
			return fmt.Errorf("upserting skater %s (%d %s): %w", row.Name, row.Season, row.Report, err)
		}
		touched[cache.ListingKey("skaters", row.Report, row.Season)] = struct{}{}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing skater upsert: %w", err)
	}

	r.invalidate(ctx, touched)
	return nil
}

func (r *SkaterRepository) invalidate(ctx context.Context, keys map[string]struct{}) {
	if r.cache == nil || len(keys) == 0 {
		return
	}
	flat := make([]string, 0, len(keys))
	for k := range keys {
		flat = append(flat, k)
	}
	if err := r.cache.Delete(ctx, flat...); err != nil {
		log.Printf("⚠️  Skater listing cache invalidation failed: %v", err)
	}
}

// scanSkaters scans listing rows into engine records.
func (r *SkaterRepository) scanSkaters(rows *sql.Rows) ([]stats.Skater, error) {
	var skaters []stats.Skater
	for rows.Next() {
		var s stats.Skater
		var report string
		var position sql.NullString
		err := rows.Scan(
			&s.Name, &s.Season, &report, &position, &s.Games, &s.Goals,
			&s.Assists, &s.Points, &s.PlusMinus, &s.Penalties, &s.Shots,
			&s.PPP, &s.SHP, &s.Hits, &s.Blocks,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning skater row: %w", err)
		}
		if position.Valid {
			s.Position = position.String
		}
		skaters = append(skaters, s)
	}
	return skaters, rows.Err()
}
