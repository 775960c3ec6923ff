package stats

import "fmt"

// SkaterField identifies one scoreable skater stat. The constant value is
// also the field's wire name, so it doubles as the key in contribution maps.
// Games is deliberately not a field: it gates eligibility and divides
// per-game rates, it is never scored itself.
type SkaterField string

const (
	SkaterGoals     SkaterField = "goals"
	SkaterAssists   SkaterField = "assists"
	SkaterPoints    SkaterField = "points"
	SkaterPlusMinus SkaterField = "plusMinus"
	SkaterPenalties SkaterField = "penalties"
	SkaterShots     SkaterField = "shots"
	SkaterPPP       SkaterField = "ppp"
	SkaterSHP       SkaterField = "shp"
	SkaterHits      SkaterField = "hits"
	SkaterBlocks    SkaterField = "blocks"
)

// GoalieField identifies one scoreable goalie stat. GoalieGAA and
// GoalieSavePercent are season rates rather than counts and normalize
// differently from the rest.
type GoalieField string

const (
	GoalieWins        GoalieField = "wins"
	GoalieSaves       GoalieField = "saves"
	GoalieShutouts    GoalieField = "shutouts"
	GoalieGoals       GoalieField = "goals"
	GoalieAssists     GoalieField = "assists"
	GoaliePoints      GoalieField = "points"
	GoaliePenalties   GoalieField = "penalties"
	GoaliePPP         GoalieField = "ppp"
	GoalieSHP         GoalieField = "shp"
	GoalieGAA         GoalieField = "gaa"
	GoalieSavePercent GoalieField = "savePercent"
)

// SkaterFields returns every scoreable skater field in scoring order.
func SkaterFields() []SkaterField {
	return []SkaterField{
		SkaterGoals, SkaterAssists, SkaterPoints, SkaterPlusMinus,
		SkaterPenalties, SkaterShots, SkaterPPP, SkaterSHP,
		SkaterHits, SkaterBlocks,
	}
}

// GoalieCountFields returns the goalie counting fields in scoring order.
// The two rate fields (gaa, savePercent) are handled separately because
// their normalization is not max-based.
func GoalieCountFields() []GoalieField {
	return []GoalieField{
		GoalieWins, GoalieSaves, GoalieShutouts, GoalieGoals,
		GoalieAssists, GoaliePoints, GoaliePenalties, GoaliePPP, GoalieSHP,
	}
}

// GoalieFields returns every scoreable goalie field, rates included.
func GoalieFields() []GoalieField {
	return append(GoalieCountFields(), GoalieGAA, GoalieSavePercent)
}

// value reads the raw stat for f. Reaching the default branch means a field
// constant exists without an accessor, which is a bug, not bad input.
func (f SkaterField) value(s *Skater) float64 {
	switch f {
	case SkaterGoals:
		return float64(s.Goals)
	case SkaterAssists:
		return float64(s.Assists)
	case SkaterPoints:
		return float64(s.Points)
	case SkaterPlusMinus:
		return float64(s.PlusMinus)
	case SkaterPenalties:
		return float64(s.Penalties)
	case SkaterShots:
		return float64(s.Shots)
	case SkaterPPP:
		return float64(s.PPP)
	case SkaterSHP:
		return float64(s.SHP)
	case SkaterHits:
		return float64(s.Hits)
	case SkaterBlocks:
		return float64(s.Blocks)
	}
	panic(fmt.Sprintf("stats: no accessor for skater field %q", string(f)))
}

func (f GoalieField) value(g *Goalie) float64 {
	switch f {
	case GoalieWins:
		return float64(g.Wins)
	case GoalieSaves:
		return float64(g.Saves)
	case GoalieShutouts:
		return float64(g.Shutouts)
	case GoalieGoals:
		return float64(g.Goals)
	case GoalieAssists:
		return float64(g.Assists)
	case GoaliePoints:
		return float64(g.Points)
	case GoaliePenalties:
		return float64(g.Penalties)
	case GoaliePPP:
		return float64(g.PPP)
	case GoalieSHP:
		return float64(g.SHP)
	}
	panic(fmt.Sprintf("stats: no accessor for goalie counting field %q", string(f)))
}
