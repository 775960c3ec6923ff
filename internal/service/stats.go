package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/hatrick/crease/internal/stats"
)

// SkaterLister loads stored skater rows.
type SkaterLister interface {
	ListSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Skater, error)
}

// GoalieLister loads stored goalie rows.
type GoalieLister interface {
	ListSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Goalie, error)
}

// SeasonLister loads the distinct stored seasons.
type SeasonLister interface {
	List(ctx context.Context) ([]int, error)
	ListFrom(ctx context.Context, startFrom int) ([]int, error)
}

// StatsService scores stored rows on demand. Listings always score as a
// complete cohort; sorting and pagination happen at the API edge, after
// scoring, so page boundaries can never change a score.
type StatsService struct {
	engine  *stats.Engine
	skaters SkaterLister
	goalies GoalieLister
	seasons SeasonLister
}

// NewStatsService creates a new stats service
func NewStatsService(engine *stats.Engine, skaters SkaterLister, goalies GoalieLister, seasons SeasonLister) *StatsService {
	return &StatsService{
		engine:  engine,
		skaters: skaters,
		goalies: goalies,
		seasons: seasons,
	}
}

// SkaterSeason returns one season's skaters, scored league-wide and by
// position.
func (s *StatsService) SkaterSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Skater, error) {
	raw, err := s.loadSkaters(ctx, season, report)
	if err != nil {
		return nil, err
	}
	return s.engine.ScoreSkatersByPosition(s.engine.ScoreSkaters(raw)), nil
}

// GoalieSeason returns one season's goalies, scored.
func (s *StatsService) GoalieSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Goalie, error) {
	raw, err := s.loadGoalies(ctx, season, report)
	if err != nil {
		return nil, err
	}
	return s.engine.ScoreGoalies(raw), nil
}

// CombinedSkaters folds every stored season from startFrom on into one
// combined record per player. startFrom <= 0 means all seasons.
func (s *StatsService) CombinedSkaters(ctx context.Context, report stats.ReportType, startFrom int) ([]stats.CombinedSkater, error) {
	seasons, err := s.seasons.ListFrom(ctx, startFrom)
	if err != nil {
		return nil, fmt.Errorf("listing seasons: %w", err)
	}

	records, err := loadSeasons(ctx, seasons, func(ctx context.Context, season int) ([]stats.Skater, error) {
		return s.loadSkaters(ctx, season, report)
	})
	if err != nil {
		return nil, err
	}

	return s.engine.CombineSkaters(records), nil
}

// CombinedGoalies is the goalie counterpart of CombinedSkaters.
func (s *StatsService) CombinedGoalies(ctx context.Context, report stats.ReportType, startFrom int) ([]stats.CombinedGoalie, error) {
	seasons, err := s.seasons.ListFrom(ctx, startFrom)
	if err != nil {
		return nil, fmt.Errorf("listing seasons: %w", err)
	}

	records, err := loadSeasons(ctx, seasons, func(ctx context.Context, season int) ([]stats.Goalie, error) {
		return s.loadGoalies(ctx, season, report)
	})
	if err != nil {
		return nil, err
	}

	return s.engine.CombineGoalies(records), nil
}

// Seasons lists every season with stored rows, ascending.
func (s *StatsService) Seasons(ctx context.Context) ([]int, error) {
	return s.seasons.List(ctx)
}

// loadSkaters fetches raw rows for one season. The "both" view loads the
// two stored reports concurrently and merges them.
func (s *StatsService) loadSkaters(ctx context.Context, season int, report stats.ReportType) ([]stats.Skater, error) {
	if report != stats.ReportBoth {
		return s.skaters.ListSeason(ctx, season, report)
	}

	var (
		wg       sync.WaitGroup
		regular  []stats.Skater
		playoffs []stats.Skater
		regErr   error
		postErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		regular, regErr = s.skaters.ListSeason(ctx, season, stats.ReportRegular)
	}()
	go func() {
		defer wg.Done()
		playoffs, postErr = s.skaters.ListSeason(ctx, season, stats.ReportPlayoffs)
	}()
	wg.Wait()

	if regErr != nil {
		return nil, fmt.Errorf("loading regular season %d: %w", season, regErr)
	}
	if postErr != nil {
		return nil, fmt.Errorf("loading playoffs %d: %w", season, postErr)
	}

	return stats.MergeSkaterReports(regular, playoffs), nil
}

func (s *StatsService) loadGoalies(ctx context.Context, season int, report stats.ReportType) ([]stats.Goalie, error) {
	if report != stats.ReportBoth {
		return s.goalies.ListSeason(ctx, season, report)
	}

	var (
		wg       sync.WaitGroup
		regular  []stats.Goalie
		playoffs []stats.Goalie
		regErr   error
		postErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		regular, regErr = s.goalies.ListSeason(ctx, season, stats.ReportRegular)
	}()
	go func() {
		defer wg.Done()
		playoffs, postErr = s.goalies.ListSeason(ctx, season, stats.ReportPlayoffs)
	}()
	wg.Wait()

	if regErr != nil {
		return nil, fmt.Errorf("loading regular season %d: %w", season, regErr)
	}
	if postErr != nil {
		return nil, fmt.Errorf("loading playoffs %d: %w", season, postErr)
	}

	return stats.MergeGoalieReports(regular, playoffs), nil
}

// loadSeasons fans one loader out across seasons and flattens the results
// in season order. The first error wins.
func loadSeasons[T any](ctx context.Context, seasons []int, load func(context.Context, int) ([]T, error)) ([]T, error) {
	if len(seasons) == 0 {
		return nil, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	perSeason := make([][]T, len(seasons))

	for i, season := range seasons {
		wg.Add(1)
		go func(i, season int) {
			defer wg.Done()
			recs, err := load(ctx, season)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("loading season %d: %w", season, err)
				}
				return
			}
			perSeason[i] = recs
		}(i, season)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	var out []T
	for _, recs := range perSeason {
		out = append(out, recs...)
	}
	return out, nil
}
