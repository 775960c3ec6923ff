package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatrick/crease/internal/stats"
)

type fakeSkaters struct {
	mu    sync.Mutex
	data  map[int]map[stats.ReportType][]stats.Skater
	calls []string
	err   error
}

func (f *fakeSkaters) ListSeason(_ context.Context, season int, report stats.ReportType) ([]stats.Skater, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%d/%s", season, report))
	if f.err != nil {
		return nil, f.err
	}
	return f.data[season][report], nil
}

type fakeGoalies struct {
	mu   sync.Mutex
	data map[int]map[stats.ReportType][]stats.Goalie
	err  error
}

func (f *fakeGoalies) ListSeason(_ context.Context, season int, report stats.ReportType) ([]stats.Goalie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.data[season][report], nil
}

type fakeSeasons struct {
	seasons []int
}

func (f *fakeSeasons) List(context.Context) ([]int, error) { return f.seasons, nil }

func (f *fakeSeasons) ListFrom(_ context.Context, startFrom int) ([]int, error) {
	if startFrom <= 0 {
		return f.seasons, nil
	}
	var out []int
	for _, s := range f.seasons {
		if s >= startFrom {
			out = append(out, s)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, skaters *fakeSkaters, goalies *fakeGoalies, seasons *fakeSeasons) *StatsService {
	t.Helper()
	engine, err := stats.NewEngine(stats.DefaultConfig())
	require.NoError(t, err)
	if skaters == nil {
		skaters = &fakeSkaters{}
	}
	if goalies == nil {
		goalies = &fakeGoalies{}
	}
	if seasons == nil {
		seasons = &fakeSeasons{}
	}
	return NewStatsService(engine, skaters, goalies, seasons)
}

func TestSkaterSeasonScoresCohort(t *testing.T) {
	skaters := &fakeSkaters{data: map[int]map[stats.ReportType][]stats.Skater{
		2023: {stats.ReportRegular: {
			{Name: "A", Season: 2023, Position: "C", Games: 20, Goals: 10},
			{Name: "B", Season: 2023, Position: "D", Games: 10, Goals: 5},
		}},
	}}
	svc := newTestService(t, skaters, nil, nil)

	scored, err := svc.SkaterSeason(context.Background(), 2023, stats.ReportRegular)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	// Goals is the only contributing field: A holds the max.
	assert.Equal(t, 100.0, scored[0].Score)
	assert.Equal(t, 50.0, scored[1].Score)
	assert.Equal(t, 100.0, scored[0].Scores["goals"])
	assert.Equal(t, 50.0, scored[1].Scores["goals"])

	// Equal per-game rates, both eligible.
	assert.Equal(t, 100.0, scored[0].ScoreAdjustedByGames)
	assert.Equal(t, 100.0, scored[1].ScoreAdjustedByGames)

	// Each is alone in its position group.
	require.NotNil(t, scored[0].ScoreByPosition)
	assert.Equal(t, 100.0, *scored[0].ScoreByPosition)
	require.NotNil(t, scored[1].ScoreByPosition)
	assert.Equal(t, 100.0, *scored[1].ScoreByPosition)
}

func TestSkaterSeasonBothMergesReports(t *testing.T) {
	skaters := &fakeSkaters{data: map[int]map[stats.ReportType][]stats.Skater{
		2023: {
			stats.ReportRegular:  {{Name: "A", Season: 2023, Games: 20, Goals: 10}},
			stats.ReportPlayoffs: {{Name: "A", Season: 2023, Games: 5, Goals: 5}},
		},
	}}
	svc := newTestService(t, skaters, nil, nil)

	scored, err := svc.SkaterSeason(context.Background(), 2023, stats.ReportBoth)
	require.NoError(t, err)
	require.Len(t, scored, 1)

	assert.Equal(t, 25, scored[0].Games)
	assert.Equal(t, 15, scored[0].Goals)
	assert.Equal(t, 100.0, scored[0].Score)

	// Both stored reports were fetched.
	sort.Strings(skaters.calls)
	assert.Equal(t, []string{"2023/playoffs", "2023/regular"}, skaters.calls)
}

func TestGoalieSeasonBothDropsRates(t *testing.T) {
	gaa := 2.5
	sv := 0.915
	goalies := &fakeGoalies{data: map[int]map[stats.ReportType][]stats.Goalie{
		2023: {
			stats.ReportRegular:  {{Name: "G", Season: 2023, Games: 50, Wins: 30, GAA: &gaa, SavePercent: &sv}},
			stats.ReportPlayoffs: {{Name: "G", Season: 2023, Games: 10, Wins: 8}},
		},
	}}
	svc := newTestService(t, nil, goalies, nil)

	scored, err := svc.GoalieSeason(context.Background(), 2023, stats.ReportBoth)
	require.NoError(t, err)
	require.Len(t, scored, 1)

	assert.Equal(t, 60, scored[0].Games)
	assert.Equal(t, 38, scored[0].Wins)
	assert.Nil(t, scored[0].GAA, "per-report rates do not survive the merge")
	assert.Nil(t, scored[0].SavePercent)
}

func TestCombinedSkaters(t *testing.T) {
	skaters := &fakeSkaters{data: map[int]map[stats.ReportType][]stats.Skater{
		2022: {stats.ReportRegular: {{Name: "Solo", Season: 2022, Position: "C", Games: 20, Goals: 10}}},
		2023: {stats.ReportRegular: {{Name: "Solo", Season: 2023, Position: "C", Games: 40, Goals: 20}}},
	}}
	seasons := &fakeSeasons{seasons: []int{2022, 2023}}
	svc := newTestService(t, skaters, nil, seasons)

	combined, err := svc.CombinedSkaters(context.Background(), stats.ReportRegular, 0)
	require.NoError(t, err)
	require.Len(t, combined, 1)

	root := combined[0]
	assert.Equal(t, "Solo", root.Name)
	assert.Equal(t, 0, root.Season, "combined roots carry no season")
	assert.Equal(t, 60, root.Games)
	assert.Equal(t, 30, root.Goals)
	assert.Equal(t, 100.0, root.Score)

	require.Len(t, root.Seasons, 2)
	assert.Equal(t, 2022, root.Seasons[0].Season)
	assert.Equal(t, 2023, root.Seasons[1].Season)
}

func TestCombinedSkatersStartFromFiltersSeasons(t *testing.T) {
	skaters := &fakeSkaters{data: map[int]map[stats.ReportType][]stats.Skater{
		2012: {stats.ReportRegular: {{Name: "Old", Season: 2012, Games: 10, Goals: 1}}},
		2023: {stats.ReportRegular: {{Name: "New", Season: 2023, Games: 10, Goals: 2}}},
	}}
	seasons := &fakeSeasons{seasons: []int{2012, 2023}}
	svc := newTestService(t, skaters, nil, seasons)

	combined, err := svc.CombinedSkaters(context.Background(), stats.ReportRegular, 2020)
	require.NoError(t, err)
	require.Len(t, combined, 1)
	assert.Equal(t, "New", combined[0].Name)

	assert.Equal(t, []string{"2023/regular"}, skaters.calls)
}

func TestCombinedSkatersEmptyStore(t *testing.T) {
	svc := newTestService(t, nil, nil, &fakeSeasons{})

	combined, err := svc.CombinedSkaters(context.Background(), stats.ReportRegular, 0)
	require.NoError(t, err)
	assert.Empty(t, combined)
}

func TestCombinedGoalies(t *testing.T) {
	goalies := &fakeGoalies{data: map[int]map[stats.ReportType][]stats.Goalie{
		2022: {stats.ReportRegular: {{Name: "Wall", Season: 2022, Games: 50, Wins: 30}}},
		2023: {stats.ReportRegular: {{Name: "Wall", Season: 2023, Games: 55, Wins: 35}}},
	}}
	seasons := &fakeSeasons{seasons: []int{2022, 2023}}
	svc := newTestService(t, nil, goalies, seasons)

	combined, err := svc.CombinedGoalies(context.Background(), stats.ReportRegular, 0)
	require.NoError(t, err)
	require.Len(t, combined, 1)

	assert.Equal(t, 105, combined[0].Games)
	assert.Equal(t, 65, combined[0].Wins)
	assert.Nil(t, combined[0].GAA, "combined roots never carry rates")
	require.Len(t, combined[0].Seasons, 2)
}

func TestSkaterSeasonPropagatesError(t *testing.T) {
	skaters := &fakeSkaters{err: errors.New("db down")}
	svc := newTestService(t, skaters, nil, nil)

	_, err := svc.SkaterSeason(context.Background(), 2023, stats.ReportRegular)
	assert.Error(t, err)

	_, err = svc.SkaterSeason(context.Background(), 2023, stats.ReportBoth)
	assert.Error(t, err)
}

func TestCombinedSkatersPropagatesLoadError(t *testing.T) {
	skaters := &fakeSkaters{err: errors.New("db down")}
	seasons := &fakeSeasons{seasons: []int{2022, 2023}}
	svc := newTestService(t, skaters, nil, seasons)

	_, err := svc.CombinedSkaters(context.Background(), stats.ReportRegular, 0)
	assert.Error(t, err)
}

func TestSeasons(t *testing.T) {
	svc := newTestService(t, nil, nil, &fakeSeasons{seasons: []int{2012, 2023}})

	got, err := svc.Seasons(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{2012, 2023}, got)
}
