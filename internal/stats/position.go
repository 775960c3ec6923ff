package stats

// ScoreSkatersByPosition re-scores each position group as its own cohort and
// attaches the results to the position score fields, leaving the
// whole-cohort fields exactly as it found them. It is a separate pass over
// scored copies: position numbers never leak into whole-league numbers or
// vice versa.
//
// Positions partition by exact string match, so a multi-position label like
// "C,RW" is its own group. Records without a position keep nil position
// scores and join no group.
func (e *Engine) ScoreSkatersByPosition(cohort []Skater) []Skater {
	out := make([]Skater, len(cohort))
	copy(out, cohort)
	for i := range out {
		out[i].resetPositionScores()
	}

	groups := make(map[string][]int)
	for i := range out {
		if p := out[i].Position; p != "" {
			groups[p] = append(groups[p], i)
		}
	}

	for _, idx := range groups {
		sub := make([]Skater, len(idx))
		for k, i := range idx {
			sub[k] = out[i]
		}
		scored := e.ScoreSkaters(sub)
		for k, i := range idx {
			score := scored[k].Score
			adjusted := scored[k].ScoreAdjustedByGames
			out[i].ScoreByPosition = &score
			out[i].ScoreByPositionAdjustedByGames = &adjusted
			out[i].ScoresByPosition = scored[k].Scores
		}
	}
	return out
}
