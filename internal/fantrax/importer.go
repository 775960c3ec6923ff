package fantrax

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hatrick/crease/internal/stats"
	"github.com/hatrick/crease/internal/store"
)

// SkaterWriter stores reconciled skater rows
type SkaterWriter interface {
	UpsertBatch(ctx context.Context, rows []store.SkaterSeasonRow) error
}

// GoalieWriter stores reconciled goalie rows
type GoalieWriter interface {
	UpsertBatch(ctx context.Context, rows []store.GoalieSeasonRow) error
}

// OnFile is invoked after each file is read, for progress reporting.
// May be nil.
type OnFile func(FileResult)

// TreeFilter narrows a local import to a subset of the export tree. Zero
// values match everything.
type TreeFilter struct {
	TeamID  string
	Seasons []int
	Reports []stats.ReportType
}

func (f TreeFilter) matchesTeam(teamID string) bool {
	return f.TeamID == "" || f.TeamID == teamID
}

func (f TreeFilter) matchesFile(report stats.ReportType, season int) bool {
	if len(f.Reports) > 0 {
		ok := false
		for _, r := range f.Reports {
			if r == report {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Seasons) > 0 {
		ok := false
		for _, s := range f.Seasons {
			if s == season {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// groupKey identifies one storage cohort. Every team's rows for a season
// and report type reconcile together, because a traded player shows up in
// more than one team's export.
type groupKey struct {
	Season int
	Report stats.ReportType
}

type rowGroup struct {
	skaters []store.SkaterSeasonRow
	goalies []store.GoalieSeasonRow
}

// Importer turns Fantrax exports into stored season rows. Sources are a
// local export tree (csv/<teamID>/<report>-<start>-<end>.csv) or a live
// scrape over every team in the league.
type Importer struct {
	skaters    SkaterWriter
	goalies    GoalieWriter
	reconciler *Reconciler
}

// NewImporter creates an importer writing through the given stores
func NewImporter(skaters SkaterWriter, goalies GoalieWriter) *Importer {
	return &Importer{
		skaters:    skaters,
		goalies:    goalies,
		reconciler: NewReconciler(PreferMostGames),
	}
}

// ImportTree walks a local export tree and stores every file that matches
// the filter. Per-file failures are reported and skipped; one garbled file
// does not sink the run.
func (im *Importer) ImportTree(ctx context.Context, root string, filter TreeFilter, onFile OnFile) (*ImportSummary, error) {
	teams, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading export tree %s: %w", root, err)
	}

	summary := &ImportSummary{}
	groups := make(map[groupKey]*rowGroup)

	for _, team := range teams {
		if !team.IsDir() || !filter.matchesTeam(team.Name()) {
			continue
		}
		teamID := team.Name()

		files, err := os.ReadDir(filepath.Join(root, teamID))
		if err != nil {
			log.Printf("⚠️  Skipping team %s: %v", teamID, err)
			continue
		}

		for _, file := range files {
			if file.IsDir() {
				continue
			}
			report, season, err := ParseExportFilename(file.Name())
			if err != nil {
				// Export trees carry stray files (notes, backups).
				continue
			}
			if !filter.matchesFile(report, season) {
				continue
			}
			if ctx.Err() != nil {
				return summary, ctx.Err()
			}

			res := im.readFile(filepath.Join(root, teamID, file.Name()), teamID, report, season, groups)
			im.record(summary, res, onFile)
		}
	}

	if err := im.flush(ctx, groups, summary); err != nil {
		return summary, err
	}

	log.Printf("✓ Local import complete: %d files, %d skaters, %d goalies, %d duplicates dropped, %d failures",
		summary.Files, summary.Skaters, summary.Goalies, summary.DuplicatesDropped, summary.Failures)
	return summary, nil
}

// ImportSeasons logs into Fantrax, discovers every team, and downloads the
// requested (season, report) exports for each of them.
func (im *Importer) ImportSeasons(ctx context.Context, client *Client, seasons []int, reports []stats.ReportType, onFile OnFile) (*ImportSummary, error) {
	if err := client.Login(ctx); err != nil {
		return nil, err
	}

	teams, err := DiscoverTeams(ctx, client)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{}
	groups := make(map[groupKey]*rowGroup)

	for _, season := range seasons {
		for _, report := range reports {
			log.Printf("→ Downloading %d %s exports for %d teams", season, report, len(teams))
			for _, team := range teams {
				if ctx.Err() != nil {
					return summary, ctx.Err()
				}

				res := im.download(ctx, client, team, report, season, groups)
				if res.Err != nil {
					log.Printf("⚠️  %s %d %s: %v", team.Name, season, report, res.Err)
				}
				im.record(summary, res, onFile)
			}
		}
	}

	if err := im.flush(ctx, groups, summary); err != nil {
		return summary, err
	}

	log.Printf("✓ Scrape complete: %d exports, %d skaters, %d goalies, %d duplicates dropped, %d failures",
		summary.Files, summary.Skaters, summary.Goalies, summary.DuplicatesDropped, summary.Failures)
	return summary, nil
}

// readFile parses one local export file into the row groups
func (im *Importer) readFile(path, teamID string, report stats.ReportType, season int, groups map[groupKey]*rowGroup) FileResult {
	res := FileResult{TeamID: teamID, Report: report, Season: season}

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	export, err := ParseExport(f, season, report)
	if err != nil {
		res.Err = fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		return res
	}

	im.collect(export, teamID, groups, &res)
	return res
}

// download fetches one export over the browser session into the row groups
func (im *Importer) download(ctx context.Context, client *Client, team Team, report stats.ReportType, season int, groups map[groupKey]*rowGroup) FileResult {
	res := FileResult{TeamID: team.ID, Report: report, Season: season}

	csvText, err := client.DownloadExport(ctx, team.ID, report, season)
	if err != nil {
		res.Err = err
		return res
	}

	export, err := ParseExport(strings.NewReader(csvText), season, report)
	if err != nil {
		res.Err = fmt.Errorf("parsing %s export: %w", team.Name, err)
		return res
	}

	im.collect(export, team.ID, groups, &res)
	return res
}

// collect converts a parsed export to store rows and adds them to its
// (season, report) group.
func (im *Importer) collect(export *Export, teamID string, groups map[groupKey]*rowGroup, res *FileResult) {
	key := groupKey{Season: export.Season, Report: export.Report}
	group := groups[key]
	if group == nil {
		group = &rowGroup{}
		groups[key] = group
	}

	for _, s := range export.Skaters {
		group.skaters = append(group.skaters, skaterRow(s, export.Report, teamID))
	}
	for _, g := range export.Goalies {
		group.goalies = append(group.goalies, goalieRow(g, export.Report, teamID))
	}

	res.Skaters = len(export.Skaters)
	res.Goalies = len(export.Goalies)
}

func (im *Importer) record(summary *ImportSummary, res FileResult, onFile OnFile) {
	summary.Files++
	if res.Err != nil {
		summary.Failures++
	}
	if onFile != nil {
		onFile(res)
	}
}

// flush reconciles each group and writes it through the stores, smallest
// season first.
func (im *Importer) flush(ctx context.Context, groups map[groupKey]*rowGroup, summary *ImportSummary) error {
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Season != keys[j].Season {
			return keys[i].Season < keys[j].Season
		}
		return keys[i].Report < keys[j].Report
	})

	for _, key := range keys {
		group := groups[key]

		before := im.reconciler.GetMetrics().Duplicates
		skaters := im.reconciler.Skaters(group.skaters)
		goalies := im.reconciler.Goalies(group.goalies)
		summary.DuplicatesDropped += im.reconciler.GetMetrics().Duplicates - before

		if err := im.skaters.UpsertBatch(ctx, skaters); err != nil {
			return fmt.Errorf("storing skaters %d %s: %w", key.Season, key.Report, err)
		}
		if err := im.goalies.UpsertBatch(ctx, goalies); err != nil {
			return fmt.Errorf("storing goalies %d %s: %w", key.Season, key.Report, err)
		}

		summary.Skaters += len(skaters)
		summary.Goalies += len(goalies)
		log.Printf("✓ Stored %d %s: %d skaters, %d goalies", key.Season, key.Report, len(skaters), len(goalies))
	}
	return nil
}

func skaterRow(s stats.Skater, report stats.ReportType, teamID string) store.SkaterSeasonRow {
	return store.SkaterSeasonRow{
		Name:      s.Name,
		Season:    s.Season,
		Report:    string(report),
		Position:  nullString(s.Position),
		TeamID:    nullString(teamID),
		Games:     s.Games,
		Goals:     s.Goals,
		Assists:   s.Assists,
		Points:    s.Points,
		PlusMinus: s.PlusMinus,
		Penalties: s.Penalties,
		Shots:     s.Shots,
		PPP:       s.PPP,
		SHP:       s.SHP,
		Hits:      s.Hits,
		Blocks:    s.Blocks,
	}
}

func goalieRow(g stats.Goalie, report stats.ReportType, teamID string) store.GoalieSeasonRow {
	return store.GoalieSeasonRow{
		Name:        g.Name,
		Season:      g.Season,
		Report:      string(report),
		TeamID:      nullString(teamID),
		Games:       g.Games,
		Wins:        g.Wins,
		Saves:       g.Saves,
		Shutouts:    g.Shutouts,
		Goals:       g.Goals,
		Assists:     g.Assists,
		Points:      g.Points,
		Penalties:   g.Penalties,
		PPP:         g.PPP,
		SHP:         g.SHP,
		GAA:         nullFloat(g.GAA),
		SavePercent: nullFloat(g.SavePercent),
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
