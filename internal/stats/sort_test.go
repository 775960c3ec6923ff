package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortSkatersByField(t *testing.T) {
	list := []Skater{
		{Name: "B", Goals: 5},
		{Name: "A", Goals: 9},
		{Name: "C", Goals: 7},
	}
	require.NoError(t, SortSkaters(list, "goals", true))
	assert.Equal(t, []string{"A", "C", "B"}, []string{list[0].Name, list[1].Name, list[2].Name})

	require.NoError(t, SortSkaters(list, "goals", false))
	assert.Equal(t, "B", list[0].Name)
}

func TestSortSkatersTieBreaksOnName(t *testing.T) {
	list := []Skater{
		{Name: "Zed", Goals: 5},
		{Name: "Abe", Goals: 5},
	}
	require.NoError(t, SortSkaters(list, "goals", true))
	assert.Equal(t, "Abe", list[0].Name)
}

func TestSortSkatersByName(t *testing.T) {
	list := []Skater{{Name: "Zed"}, {Name: "Abe"}}
	require.NoError(t, SortSkaters(list, "name", false))
	assert.Equal(t, "Abe", list[0].Name)
	require.NoError(t, SortSkaters(list, "name", true))
	assert.Equal(t, "Zed", list[0].Name)
}

func TestSortSkatersUnknownField(t *testing.T) {
	err := SortSkaters([]Skater{{Name: "A"}}, "corsi", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corsi")
}

func TestSortSkatersNilPositionScoreSortsAsZero(t *testing.T) {
	list := []Skater{
		{Name: "NoPos"},
		{Name: "Center", ScoreByPosition: fptr(40)},
	}
	require.NoError(t, SortSkaters(list, "scoreByPosition", true))
	assert.Equal(t, "Center", list[0].Name)
}

func TestSortGoaliesByRateField(t *testing.T) {
	list := []Goalie{
		{Name: "Leaky", GAA: fptr(3.4)},
		{Name: "Sharp", GAA: fptr(2.1)},
		{Name: "NoData"},
	}
	require.NoError(t, SortGoalies(list, "gaa", false))
	// nil sorts as zero, ahead of real numbers ascending.
	assert.Equal(t, "NoData", list[0].Name)
	assert.Equal(t, "Sharp", list[1].Name)

	err := SortGoalies(list, "hits", true)
	require.Error(t, err, "hits is not a goalie field")
}

func TestSortCombinedSkaters(t *testing.T) {
	list := []CombinedSkater{
		{Skater: Skater{Name: "B", Score: 70}},
		{Skater: Skater{Name: "A", Score: 90}},
	}
	require.NoError(t, SortCombinedSkaters(list, "score", true))
	assert.Equal(t, "A", list[0].Name)

	require.NoError(t, SortCombinedSkaters(list, "name", true))
	assert.Equal(t, "B", list[0].Name)
}

func TestSortCombinedGoalies(t *testing.T) {
	list := []CombinedGoalie{
		{Goalie: Goalie{Name: "B", Wins: 40}},
		{Goalie: Goalie{Name: "A", Wins: 10}},
	}
	require.NoError(t, SortCombinedGoalies(list, "wins", true))
	assert.Equal(t, "B", list[0].Name)
}

func TestParseOrder(t *testing.T) {
	desc, err := ParseOrder("")
	require.NoError(t, err)
	assert.True(t, desc)

	desc, err = ParseOrder("asc")
	require.NoError(t, err)
	assert.False(t, desc)

	_, err = ParseOrder("sideways")
	require.Error(t, err)
}

func TestParseReportType(t *testing.T) {
	for _, s := range []string{"regular", "playoffs", "both"} {
		rt, err := ParseReportType(s)
		require.NoError(t, err)
		assert.Equal(t, ReportType(s), rt)
	}
	_, err := ParseReportType("preseason")
	require.Error(t, err)
	_, err = ParseReportType("")
	require.Error(t, err)
}
