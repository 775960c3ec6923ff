package stats

import "math"

// contribution is one entity's normalized value for one field. included
// false means the field is left out of that entity's weighted average
// entirely; it is not the same as contributing zero.
type contribution struct {
	value    float64
	included bool
}

// round2 rounds to two decimals. Applied exactly once, at the point a value
// is attached to a record; all intermediate math stays exact.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// perGameRate divides a counting stat by games played. A non-positive games
// value cannot produce a meaningful rate, so it maps to zero rather than
// letting an Inf or NaN leak downstream.
func perGameRate(value float64, games int) float64 {
	if games <= 0 {
		return 0
	}
	return value / float64(games)
}

// normalizeNonNegative scales non-negative values so the cohort best maps to
// exactly 100. The best value is special-cased to 100 rather than trusting
// v/max*100 to land there. A cohort where nobody recorded the stat (max 0)
// excludes the field for everyone.
func normalizeNonNegative(values []float64) []contribution {
	out := make([]contribution, len(values))
	max := 0.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return out
	}
	for i, v := range values {
		if v == max {
			out[i] = contribution{100, true}
			continue
		}
		out[i] = contribution{v / max * 100, true}
	}
	return out
}

// normalizeSigned min-max scales a field that can go negative (plus/minus).
// The cohort best maps to exactly 100 and the worst to exactly 0. When every
// value is identical there is no spread to scale over and the field is
// excluded for everyone.
func normalizeSigned(values []float64) []contribution {
	out := make([]contribution, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return out
	}
	span := max - min
	for i, v := range values {
		switch {
		case v == max:
			out[i] = contribution{100, true}
		case v == min:
			out[i] = contribution{0, true}
		default:
			out[i] = contribution{(v - min) / span * 100, true}
		}
	}
	return out
}

// normalizeAboveBaseline handles save percentage: values at or below the
// baseline contribute 0 (but stay included), values above it scale linearly
// so the cohort best maps to exactly 100. A nil value excludes the field for
// that entity only.
func normalizeAboveBaseline(values []*float64, baseline float64) []contribution {
	out := make([]contribution, len(values))
	max := math.Inf(-1)
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		seen = true
		if *v > max {
			max = *v
		}
	}
	if !seen {
		return out
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		switch {
		case *v <= baseline:
			out[i] = contribution{0, true}
		case *v == max:
			out[i] = contribution{100, true}
		default:
			out[i] = contribution{(*v - baseline) / (max - baseline) * 100, true}
		}
	}
	return out
}

// normalizeLowerBest handles goals-against average, where the lowest value
// is the best. The cohort best maps to exactly 100 (even a perfect 0.00);
// everyone else falls off linearly with their relative distance from the
// best, hitting 0 at maxDiffRatio. Outliers at or past the ratio contribute
// 0 so one blown-up season cannot compress the whole scale. Nil excludes
// the field for that entity only.
func normalizeLowerBest(values []*float64, maxDiffRatio float64) []contribution {
	out := make([]contribution, len(values))
	best := math.Inf(1)
	seen := false
	for _, v := range values {
		if v == nil {
			continue
		}
		seen = true
		if *v < best {
			best = *v
		}
	}
	if !seen {
		return out
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		if *v == best {
			out[i] = contribution{100, true}
			continue
		}
		if best == 0 {
			// Somebody posted a perfect GAA; relative distance from zero is
			// undefined, everyone else is an outlier.
			out[i] = contribution{0, true}
			continue
		}
		diff := (*v - best) / best
		if diff >= maxDiffRatio {
			out[i] = contribution{0, true}
			continue
		}
		out[i] = contribution{100 * (1 - diff/maxDiffRatio), true}
	}
	return out
}
