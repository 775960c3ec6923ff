package stats

import "fmt"

// Config carries everything tunable about scoring. The engine itself
// hardcodes none of it; construction fails fast on an unusable table so a
// bad deploy dies at startup instead of quietly scoring everyone zero.
type Config struct {
	SkaterWeights map[SkaterField]float64
	GoalieWeights map[GoalieField]float64

	// MinGamesForAdjustedScore gates the per-game pass. Entities under the
	// threshold get scoreAdjustedByGames 0 and are left out of the
	// sub-cohort entirely, so a two-game hot streak cannot set the ceiling.
	MinGamesForAdjustedScore int

	// SavePercentBaseline is the floor below which a save percentage
	// contributes nothing. League-average backups sit just above it.
	SavePercentBaseline float64

	// GAAMaxDiffRatio is the relative distance from the cohort-best GAA at
	// which a goalie's contribution reaches zero.
	GAAMaxDiffRatio float64
}

// DefaultConfig returns the league's tuned weights. Category weights mirror
// the Fantrax scoring settings: points categories full weight, peripheral
// categories half or quarter weight.
func DefaultConfig() Config {
	return Config{
		SkaterWeights: map[SkaterField]float64{
			SkaterGoals:     1,
			SkaterAssists:   1,
			SkaterPoints:    1,
			SkaterPlusMinus: 0.5,
			SkaterPenalties: 0.25,
			SkaterShots:     0.5,
			SkaterPPP:       0.75,
			SkaterSHP:       0.75,
			SkaterHits:      0.5,
			SkaterBlocks:    0.5,
		},
		GoalieWeights: map[GoalieField]float64{
			GoalieWins:        1,
			GoalieSaves:       0.75,
			GoalieShutouts:    1,
			GoalieGoals:       0.5,
			GoalieAssists:     0.5,
			GoaliePoints:      0.5,
			GoaliePenalties:   0.25,
			GoaliePPP:         0.25,
			GoalieSHP:         0.25,
			GoalieGAA:         1,
			GoalieSavePercent: 1,
		},
		MinGamesForAdjustedScore: 10,
		SavePercentBaseline:      0.8,
		GAAMaxDiffRatio:          0.75,
	}
}

// Validate checks the config is complete and sane. Every scoreable field
// must have a non-negative weight, and each table needs at least one
// positive weight or every score would be zero by construction.
func (c Config) Validate() error {
	if c.MinGamesForAdjustedScore < 0 {
		return fmt.Errorf("minGamesForAdjustedScore must be >= 0, got %d", c.MinGamesForAdjustedScore)
	}
	if c.SavePercentBaseline < 0 || c.SavePercentBaseline >= 1 {
		return fmt.Errorf("savePercentBaseline must be in [0, 1), got %v", c.SavePercentBaseline)
	}
	if c.GAAMaxDiffRatio <= 0 {
		return fmt.Errorf("gaaMaxDiffRatio must be > 0, got %v", c.GAAMaxDiffRatio)
	}

	var skaterTotal float64
	for _, f := range SkaterFields() {
		w, ok := c.SkaterWeights[f]
		if !ok {
			return fmt.Errorf("skater weight table missing field %q", string(f))
		}
		if w < 0 {
			return fmt.Errorf("skater weight for %q must be >= 0, got %v", string(f), w)
		}
		skaterTotal += w
	}
	if skaterTotal == 0 {
		return fmt.Errorf("skater weight table is all zeros")
	}

	var goalieTotal float64
	for _, f := range GoalieFields() {
		w, ok := c.GoalieWeights[f]
		if !ok {
			return fmt.Errorf("goalie weight table missing field %q", string(f))
		}
		if w < 0 {
			return fmt.Errorf("goalie weight for %q must be >= 0, got %v", string(f), w)
		}
		goalieTotal += w
	}
	if goalieTotal == 0 {
		return fmt.Errorf("goalie weight table is all zeros")
	}
	return nil
}
