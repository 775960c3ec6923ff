package fantrax

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hatrick/crease/internal/stats"
)

// Fantrax column labels. Column order shifts between export vintages, so
// rows are always read through a header-built index, never by position.
const (
	colPos       = "Pos"
	colPlayer    = "Player"
	colTeam      = "Team"
	colGames     = "GP"
	colGoals     = "G"
	colAssists   = "A"
	colPoints    = "Pts"
	colPlusMinus = "+/-"
	colPenalties = "PIM"
	colShots     = "SOG"
	colPPP       = "PPP"
	colSHP       = "SHP"
	colHits      = "Hit"
	colBlocks    = "Blk"
	colWins      = "W-G"
	colSaves     = "SV"
	colShutouts  = "SO"
	colGAA       = "GAA"
	colSavePct   = "SV%"
)

// Section marker rows in the export.
const (
	markerSkaters = "Skaters"
	markerGoalies = "Goalies"
)

type section int

const (
	sectionNone section = iota
	sectionSkaters
	sectionGoalies
)

// ParseExport reads one Fantrax CSV export. The file carries a "Skaters"
// section and a "Goalies" section, each introduced by a single-cell marker
// row followed by a header row starting with "Pos". Totals rows are
// skipped. Garbled numeric cells coerce to 0; garbled rate cells (gaa,
// SV%) coerce to nil so they read as absent, not as a perfect zero.
func ParseExport(r io.Reader, season int, report stats.ReportType) (*Export, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	export := &Export{Season: season, Report: report}
	sec := sectionNone
	var cols map[string]int
	sectionsSeen := 0

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading export: %w", err)
		}
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])

		if isMarker(row, first, markerSkaters) {
			sec = sectionSkaters
			cols = nil
			sectionsSeen++
			continue
		}
		if isMarker(row, first, markerGoalies) {
			sec = sectionGoalies
			cols = nil
			sectionsSeen++
			continue
		}
		if sec == sectionNone {
			// Preamble before the first marker.
			continue
		}

		if cols == nil {
			if first != colPos {
				continue
			}
			cols = headerIndex(row)
			if _, ok := cols[colPlayer]; !ok {
				return nil, fmt.Errorf("export header has no %q column", colPlayer)
			}
			continue
		}

		name := cell(row, cols, colPlayer)
		if name == "" || name == "Totals" {
			continue
		}

		switch sec {
		case sectionSkaters:
			export.Skaters = append(export.Skaters, parseSkaterRow(row, cols, season))
		case sectionGoalies:
			export.Goalies = append(export.Goalies, parseGoalieRow(row, cols, season))
		}
	}

	if sectionsSeen == 0 {
		return nil, fmt.Errorf("no %q or %q section found", markerSkaters, markerGoalies)
	}
	return export, nil
}

// isMarker matches a single-cell section marker row; exports sometimes pad
// the marker row with empty cells.
func isMarker(row []string, first, marker string) bool {
	if first != marker {
		return false
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, label := range header {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := cols[label]; dup {
			continue
		}
		cols[label] = i
	}
	return cols
}

func cell(row []string, cols map[string]int, label string) string {
	idx, ok := cols[label]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseSkaterRow(row []string, cols map[string]int, season int) stats.Skater {
	return stats.Skater{
		Name:      cell(row, cols, colPlayer),
		Season:    season,
		Position:  cell(row, cols, colPos),
		Games:     parseCount(cell(row, cols, colGames)),
		Goals:     parseCount(cell(row, cols, colGoals)),
		Assists:   parseCount(cell(row, cols, colAssists)),
		Points:    parseCount(cell(row, cols, colPoints)),
		PlusMinus: parseCount(cell(row, cols, colPlusMinus)),
		Penalties: parseCount(cell(row, cols, colPenalties)),
		Shots:     parseCount(cell(row, cols, colShots)),
		PPP:       parseCount(cell(row, cols, colPPP)),
		SHP:       parseCount(cell(row, cols, colSHP)),
		Hits:      parseCount(cell(row, cols, colHits)),
		Blocks:    parseCount(cell(row, cols, colBlocks)),
	}
}

func parseGoalieRow(row []string, cols map[string]int, season int) stats.Goalie {
	g := stats.Goalie{
		Name:        cell(row, cols, colPlayer),
		Season:      season,
		Games:       parseCount(cell(row, cols, colGames)),
		Wins:        parseCount(cell(row, cols, colWins)),
		Saves:       parseCount(cell(row, cols, colSaves)),
		Shutouts:    parseCount(cell(row, cols, colShutouts)),
		Goals:       parseCount(cell(row, cols, colGoals)),
		Assists:     parseCount(cell(row, cols, colAssists)),
		Points:      parseCount(cell(row, cols, colPoints)),
		Penalties:   parseCount(cell(row, cols, colPenalties)),
		PPP:         parseCount(cell(row, cols, colPPP)),
		SHP:         parseCount(cell(row, cols, colSHP)),
		GAA:         parseRate(cell(row, cols, colGAA)),
		SavePercent: parseRate(cell(row, cols, colSavePct)),
	}
	// Some export vintages ship the GP and W-G columns with their values
	// swapped. No goalie wins more games than they play, so an inverted
	// pair identifies itself.
	if g.Wins > g.Games {
		g.Games, g.Wins = g.Wins, g.Games
	}
	return g
}

// parseCount coerces a counting cell to an int. Fantrax pads big numbers
// with commas; anything unparsable is a 0, never an error, so one garbled
// cell cannot sink a whole file.
func parseCount(s string) int {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return 0
}

// parseRate coerces a rate cell (gaa, SV%) to a float pointer. Unparsable
// or empty cells are nil: an absent rate must stay distinguishable from a
// real 0.00.
func parseRate(s string) *float64 {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
