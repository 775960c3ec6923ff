package stats

import "fmt"

// Engine scores cohorts against a validated Config. It is stateless beyond
// the config and safe for concurrent use.
type Engine struct {
	cfg Config
}

// NewEngine validates cfg and builds an engine. An invalid config is a
// deployment error and should stop startup.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// column is one field's normalized contributions across a cohort, in cohort
// order, paired with the field's weight.
type column struct {
	key      string
	weight   float64
	contribs []contribution
}

// cohortScores holds the exact weighted averages and the rounded per-field
// maps for one scoring pass. totals are unrounded; callers round when
// attaching.
type cohortScores struct {
	totals []float64
	fields []map[string]float64
}

// scoreColumns computes each entity's weighted average over its included
// fields only. An excluded field drops out of both numerator and
// denominator; an entity whose every field is excluded scores 0 and gets no
// contribution map.
func scoreColumns(cols []column, n int) cohortScores {
	totals := make([]float64, n)
	weights := make([]float64, n)
	fields := make([]map[string]float64, n)
	for _, c := range cols {
		for i, ct := range c.contribs {
			if !ct.included {
				continue
			}
			totals[i] += ct.value * c.weight
			weights[i] += c.weight
			if fields[i] == nil {
				fields[i] = make(map[string]float64, len(cols))
			}
			fields[i][c.key] = round2(ct.value)
		}
	}
	for i := range totals {
		if weights[i] > 0 {
			totals[i] /= weights[i]
		} else {
			totals[i] = 0
		}
	}
	return cohortScores{totals: totals, fields: fields}
}

// skaterColumns normalizes every skater field over the cohort. With perGame
// set, counting stats are divided by games first; plus/minus stays the one
// signed field either way.
func (e *Engine) skaterColumns(cohort []Skater, perGame bool) []column {
	fields := SkaterFields()
	cols := make([]column, 0, len(fields))
	for _, f := range fields {
		values := make([]float64, len(cohort))
		for i := range cohort {
			v := f.value(&cohort[i])
			if perGame {
				v = perGameRate(v, cohort[i].Games)
			}
			values[i] = v
		}
		var contribs []contribution
		if f == SkaterPlusMinus {
			contribs = normalizeSigned(values)
		} else {
			contribs = normalizeNonNegative(values)
		}
		cols = append(cols, column{key: string(f), weight: e.cfg.SkaterWeights[f], contribs: contribs})
	}
	return cols
}

// goalieColumns normalizes the goalie counting fields plus the two rate
// fields. GAA and save percentage are already per-season rates, so the
// perGame pass carries them through unchanged.
func (e *Engine) goalieColumns(cohort []Goalie, perGame bool) []column {
	fields := GoalieCountFields()
	cols := make([]column, 0, len(fields)+2)
	for _, f := range fields {
		values := make([]float64, len(cohort))
		for i := range cohort {
			v := f.value(&cohort[i])
			if perGame {
				v = perGameRate(v, cohort[i].Games)
			}
			values[i] = v
		}
		cols = append(cols, column{key: string(f), weight: e.cfg.GoalieWeights[f], contribs: normalizeNonNegative(values)})
	}

	gaa := make([]*float64, len(cohort))
	sv := make([]*float64, len(cohort))
	for i := range cohort {
		gaa[i] = cohort[i].GAA
		sv[i] = cohort[i].SavePercent
	}
	cols = append(cols,
		column{key: string(GoalieGAA), weight: e.cfg.GoalieWeights[GoalieGAA], contribs: normalizeLowerBest(gaa, e.cfg.GAAMaxDiffRatio)},
		column{key: string(GoalieSavePercent), weight: e.cfg.GoalieWeights[GoalieSavePercent], contribs: normalizeAboveBaseline(sv, e.cfg.SavePercentBaseline)},
	)
	return cols
}

// ScoreSkaters scores a cohort and returns fresh copies; the input is never
// mutated and any previously attached score fields are ignored and
// recomputed, so re-scoring a scored cohort reproduces the same numbers.
//
// The raw pass normalizes season totals over the whole cohort. The
// games-adjusted pass re-normalizes per-game rates over only the entities
// meeting the games threshold; everyone else gets 0.
func (e *Engine) ScoreSkaters(cohort []Skater) []Skater {
	out := make([]Skater, len(cohort))
	copy(out, cohort)
	for i := range out {
		out[i].resetScores()
		out[i].resetPositionScores()
	}
	if len(out) == 0 {
		return out
	}

	raw := scoreColumns(e.skaterColumns(out, false), len(out))
	for i := range out {
		out[i].Score = round2(raw.totals[i])
		out[i].Scores = raw.fields[i]
	}

	qualified := make([]int, 0, len(out))
	for i := range out {
		if out[i].Games >= e.cfg.MinGamesForAdjustedScore {
			qualified = append(qualified, i)
		}
	}
	if len(qualified) == 0 {
		return out
	}
	sub := make([]Skater, len(qualified))
	for k, i := range qualified {
		sub[k] = out[i]
	}
	adj := scoreColumns(e.skaterColumns(sub, true), len(sub))
	for k, i := range qualified {
		out[i].ScoreAdjustedByGames = round2(adj.totals[k])
	}
	return out
}

// ScoreGoalies is the goalie counterpart of ScoreSkaters. Goalies have no
// position pass; gaa and savePercent join both passes unchanged.
func (e *Engine) ScoreGoalies(cohort []Goalie) []Goalie {
	out := make([]Goalie, len(cohort))
	copy(out, cohort)
	for i := range out {
		out[i].resetScores()
	}
	if len(out) == 0 {
		return out
	}

	raw := scoreColumns(e.goalieColumns(out, false), len(out))
	for i := range out {
		out[i].Score = round2(raw.totals[i])
		out[i].Scores = raw.fields[i]
	}

	qualified := make([]int, 0, len(out))
	for i := range out {
		if out[i].Games >= e.cfg.MinGamesForAdjustedScore {
			qualified = append(qualified, i)
		}
	}
	if len(qualified) == 0 {
		return out
	}
	sub := make([]Goalie, len(qualified))
	for k, i := range qualified {
		sub[k] = out[i]
	}
	adj := scoreColumns(e.goalieColumns(sub, true), len(sub))
	for k, i := range qualified {
		out[i].ScoreAdjustedByGames = round2(adj.totals[k])
	}
	return out
}
