// Package fantrax ingests Fantrax league exports: per-team CSV files named
// by report type and season span, fetched by a headless-browser session or
// read from a local export tree.
package fantrax

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hatrick/crease/internal/stats"
)

// Team is one franchise in the Fantrax league, discovered from the league
// standings page.
type Team struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Export is the parsed content of one CSV file: a skater section and a
// goalie section for a single (team, report, season).
type Export struct {
	Season  int
	Report  stats.ReportType
	Skaters []stats.Skater
	Goalies []stats.Goalie
}

// FileResult summarizes one imported file for progress reporting.
type FileResult struct {
	TeamID  string
	Report  stats.ReportType
	Season  int
	Skaters int
	Goalies int
	Err     error
}

// ImportSummary aggregates a whole import run.
type ImportSummary struct {
	Files             int
	Skaters           int
	Goalies           int
	DuplicatesDropped int
	Failures          int
}

// Export files are named `<report>-<startYear>-<endYear>.csv`; the season
// identity is the start year (regular-2012-2013.csv is season 2012).
var exportFilePattern = regexp.MustCompile(`^(regular|playoffs)-(\d{4})-(\d{4})\.csv$`)

// ParseExportFilename extracts the report type and season from an export
// file name.
func ParseExportFilename(name string) (stats.ReportType, int, error) {
	m := exportFilePattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, fmt.Errorf("not an export file name: %q", name)
	}
	start, _ := strconv.Atoi(m[2])
	end, _ := strconv.Atoi(m[3])
	if end != start+1 {
		return "", 0, fmt.Errorf("export file %q spans %d-%d, want consecutive years", name, start, end)
	}
	return stats.ReportType(m[1]), start, nil
}

// ExportFilename is the inverse of ParseExportFilename.
func ExportFilename(report stats.ReportType, season int) string {
	return fmt.Sprintf("%s-%d-%d.csv", report, season, season+1)
}
