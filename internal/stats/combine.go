package stats

import "sort"

type seasonKey struct {
	name   string
	season int
}

// MergeSkaterReports builds the "both" view: same-named records from the
// same season have their counting stats summed; records present in only one
// report pass through unchanged. Output keeps first-appearance order,
// regular records first. The regular-season position wins when both reports
// carry one.
func MergeSkaterReports(regular, playoffs []Skater) []Skater {
	out := make([]Skater, 0, len(regular)+len(playoffs))
	index := make(map[seasonKey]int, len(regular))
	for _, r := range regular {
		index[seasonKey{r.Name, r.Season}] = len(out)
		out = append(out, r)
	}
	for _, p := range playoffs {
		k := seasonKey{p.Name, p.Season}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, p)
			continue
		}
		addSkaterCounts(&out[i], p)
		if out[i].Position == "" {
			out[i].Position = p.Position
		}
	}
	return out
}

// MergeGoalieReports is the goalie "both" view. GAA and save percentage are
// per-report rates with no meaningful sum, so the merged view drops them on
// every record, including goalies who appeared in only one report.
func MergeGoalieReports(regular, playoffs []Goalie) []Goalie {
	out := make([]Goalie, 0, len(regular)+len(playoffs))
	index := make(map[seasonKey]int, len(regular))
	for _, r := range regular {
		index[seasonKey{r.Name, r.Season}] = len(out)
		out = append(out, r)
	}
	for _, p := range playoffs {
		k := seasonKey{p.Name, p.Season}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, p)
			continue
		}
		addGoalieCounts(&out[i], p)
	}
	for i := range out {
		out[i].GAA = nil
		out[i].SavePercent = nil
	}
	return out
}

// CombineSkaters turns a flat set of per-season records into one combined
// record per player name:
//
//  1. Each season's records are scored as their own cohort, and each scored
//     record is snapshotted under (name, season).
//  2. Counting stats are summed across seasons into a root record per name;
//     the root position is the latest season's non-empty position and the
//     root season is zero (omitted on the wire).
//  3. The root records are re-scored as one combined cohort, whole-league
//     and by position.
//
// Every root carries its per-season snapshots ascending by season, each
// keeping the score it earned inside its own season. Output is sorted by
// name.
func (e *Engine) CombineSkaters(records []Skater) []CombinedSkater {
	bySeason := make(map[int][]Skater)
	for _, r := range records {
		bySeason[r.Season] = append(bySeason[r.Season], r)
	}
	snaps := make(map[seasonKey]Skater, len(records))
	for _, cohort := range bySeason {
		for _, s := range e.ScoreSkaters(cohort) {
			snaps[seasonKey{s.Name, s.Season}] = s
		}
	}

	names := make([]string, 0, len(records))
	byName := make(map[string][]Skater)
	for _, r := range records {
		if _, ok := byName[r.Name]; !ok {
			names = append(names, r.Name)
		}
		byName[r.Name] = append(byName[r.Name], r)
	}

	roots := make([]Skater, 0, len(names))
	seasonsOf := make(map[string][]Skater, len(names))
	for _, name := range names {
		recs := byName[name]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Season < recs[j].Season })

		root := Skater{Name: name}
		snapshots := make([]Skater, 0, len(recs))
		for _, r := range recs {
			addSkaterCounts(&root, r)
			if r.Position != "" {
				root.Position = r.Position
			}
			snap, ok := snaps[seasonKey{r.Name, r.Season}]
			if !ok {
				// Unreachable from step 1, but a missing snapshot must not
				// invent a score: fall back to the raw record at zero.
				snap = r
				snap.resetScores()
				snap.resetPositionScores()
			}
			snapshots = append(snapshots, snap)
		}
		roots = append(roots, root)
		seasonsOf[name] = snapshots
	}

	scored := e.ScoreSkatersByPosition(e.ScoreSkaters(roots))
	out := make([]CombinedSkater, len(scored))
	for i, s := range scored {
		out[i] = CombinedSkater{Skater: s, Seasons: seasonsOf[s.Name]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CombineGoalies is the goalie counterpart of CombineSkaters. Root records
// never carry gaa or savePercent; snapshots keep whatever their season view
// had.
func (e *Engine) CombineGoalies(records []Goalie) []CombinedGoalie {
	bySeason := make(map[int][]Goalie)
	for _, r := range records {
		bySeason[r.Season] = append(bySeason[r.Season], r)
	}
	snaps := make(map[seasonKey]Goalie, len(records))
	for _, cohort := range bySeason {
		for _, g := range e.ScoreGoalies(cohort) {
			snaps[seasonKey{g.Name, g.Season}] = g
		}
	}

	names := make([]string, 0, len(records))
	byName := make(map[string][]Goalie)
	for _, r := range records {
		if _, ok := byName[r.Name]; !ok {
			names = append(names, r.Name)
		}
		byName[r.Name] = append(byName[r.Name], r)
	}

	roots := make([]Goalie, 0, len(names))
	seasonsOf := make(map[string][]Goalie, len(names))
	for _, name := range names {
		recs := byName[name]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Season < recs[j].Season })

		root := Goalie{Name: name}
		snapshots := make([]Goalie, 0, len(recs))
		for _, r := range recs {
			addGoalieCounts(&root, r)
			snap, ok := snaps[seasonKey{r.Name, r.Season}]
			if !ok {
				snap = r
				snap.resetScores()
				snapshots = append(snapshots, snap)
				continue
			}
			snapshots = append(snapshots, snap)
		}
		roots = append(roots, root)
		seasonsOf[name] = snapshots
	}

	scored := e.ScoreGoalies(roots)
	out := make([]CombinedGoalie, len(scored))
	for i, g := range scored {
		out[i] = CombinedGoalie{Goalie: g, Seasons: seasonsOf[g.Name]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
