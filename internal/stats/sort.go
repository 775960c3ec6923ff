package stats

import (
	"fmt"
	"sort"
)

// Sort orders. Listings default to descending score; combined views default
// to name order, which OrderAsc expresses.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ParseOrder validates a sort order coming off the wire, defaulting to
// descending when empty.
func ParseOrder(s string) (desc bool, err error) {
	switch s {
	case "", OrderDesc:
		return true, nil
	case OrderAsc:
		return false, nil
	}
	return false, fmt.Errorf("unknown sort order %q (want asc or desc)", s)
}

// skaterSortValue maps a wire-level sort field to a numeric key. Name is
// handled by the sort functions themselves; everything else sorts
// numerically with nil position scores counting as zero.
func skaterSortValue(field string) (func(*Skater) float64, error) {
	switch field {
	case "season":
		return func(s *Skater) float64 { return float64(s.Season) }, nil
	case "games":
		return func(s *Skater) float64 { return float64(s.Games) }, nil
	case string(SkaterGoals), string(SkaterAssists), string(SkaterPoints),
		string(SkaterPlusMinus), string(SkaterPenalties), string(SkaterShots),
		string(SkaterPPP), string(SkaterSHP), string(SkaterHits), string(SkaterBlocks):
		f := SkaterField(field)
		return func(s *Skater) float64 { return f.value(s) }, nil
	case "score":
		return func(s *Skater) float64 { return s.Score }, nil
	case "scoreAdjustedByGames":
		return func(s *Skater) float64 { return s.ScoreAdjustedByGames }, nil
	case "scoreByPosition":
		return func(s *Skater) float64 { return deref(s.ScoreByPosition) }, nil
	case "scoreByPositionAdjustedByGames":
		return func(s *Skater) float64 { return deref(s.ScoreByPositionAdjustedByGames) }, nil
	}
	return nil, fmt.Errorf("unknown skater sort field %q", field)
}

func goalieSortValue(field string) (func(*Goalie) float64, error) {
	switch field {
	case "season":
		return func(g *Goalie) float64 { return float64(g.Season) }, nil
	case "games":
		return func(g *Goalie) float64 { return float64(g.Games) }, nil
	case string(GoalieWins), string(GoalieSaves), string(GoalieShutouts),
		string(GoalieGoals), string(GoalieAssists), string(GoaliePoints),
		string(GoaliePenalties), string(GoaliePPP), string(GoalieSHP):
		f := GoalieField(field)
		return func(g *Goalie) float64 { return f.value(g) }, nil
	case string(GoalieGAA):
		return func(g *Goalie) float64 { return deref(g.GAA) }, nil
	case string(GoalieSavePercent):
		return func(g *Goalie) float64 { return deref(g.SavePercent) }, nil
	case "score":
		return func(g *Goalie) float64 { return g.Score }, nil
	case "scoreAdjustedByGames":
		return func(g *Goalie) float64 { return g.ScoreAdjustedByGames }, nil
	}
	return nil, fmt.Errorf("unknown goalie sort field %q", field)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// SortSkaters sorts in place by the named field. Numeric ties break on name
// ascending so repeated requests paginate identically.
func SortSkaters(list []Skater, field string, desc bool) error {
	if field == "name" {
		sortByName(list, func(s *Skater) string { return s.Name }, desc)
		return nil
	}
	val, err := skaterSortValue(field)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool {
		vi, vj := val(&list[i]), val(&list[j])
		if vi == vj {
			return list[i].Name < list[j].Name
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
	return nil
}

// SortGoalies sorts in place by the named field, name tiebreak ascending.
func SortGoalies(list []Goalie, field string, desc bool) error {
	if field == "name" {
		sortByName(list, func(g *Goalie) string { return g.Name }, desc)
		return nil
	}
	val, err := goalieSortValue(field)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool {
		vi, vj := val(&list[i]), val(&list[j])
		if vi == vj {
			return list[i].Name < list[j].Name
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
	return nil
}

// SortCombinedSkaters sorts combined views by a root-record field.
func SortCombinedSkaters(list []CombinedSkater, field string, desc bool) error {
	if field == "name" {
		sortByName(list, func(c *CombinedSkater) string { return c.Name }, desc)
		return nil
	}
	val, err := skaterSortValue(field)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool {
		vi, vj := val(&list[i].Skater), val(&list[j].Skater)
		if vi == vj {
			return list[i].Name < list[j].Name
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
	return nil
}

// SortCombinedGoalies sorts combined goalie views by a root-record field.
func SortCombinedGoalies(list []CombinedGoalie, field string, desc bool) error {
	if field == "name" {
		sortByName(list, func(c *CombinedGoalie) string { return c.Name }, desc)
		return nil
	}
	val, err := goalieSortValue(field)
	if err != nil {
		return err
	}
	sort.SliceStable(list, func(i, j int) bool {
		vi, vj := val(&list[i].Goalie), val(&list[j].Goalie)
		if vi == vj {
			return list[i].Name < list[j].Name
		}
		if desc {
			return vi > vj
		}
		return vi < vj
	})
	return nil
}

func sortByName[T any](list []T, name func(*T) string, desc bool) {
	sort.SliceStable(list, func(i, j int) bool {
		if desc {
			return name(&list[i]) > name(&list[j])
		}
		return name(&list[i]) < name(&list[j])
	})
}
