package fantrax

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatrick/crease/internal/stats"
	"github.com/hatrick/crease/internal/store"
)

type skaterCapture struct {
	rows    []store.SkaterSeasonRow
	batches int
}

func (c *skaterCapture) UpsertBatch(_ context.Context, rows []store.SkaterSeasonRow) error {
	c.rows = append(c.rows, rows...)
	c.batches++
	return nil
}

type goalieCapture struct {
	rows []store.GoalieSeasonRow
}

func (c *goalieCapture) UpsertBatch(_ context.Context, rows []store.GoalieSeasonRow) error {
	c.rows = append(c.rows, rows...)
	return nil
}

const teamOneExport = `"Skaters"
"Pos","Player","Team","GP","G","A","Pts","+/-","PIM","SOG","PPP","SHP","Hit","Blk"
"C","Traded Guy","PIT","40","10","15","25","2","10","90","5","0","20","10"
"LW","Home Skater","PIT","82","30","40","70","10","30","250","20","2","80","40"
"Goalies"
"Pos","Player","Team","GP","W-G","SV","SO","G","A","Pts","PIM","PPP","SHP","GAA","SV%"
"G","Home Goalie","PIT","50","28","1,100","3","0","1","1","0","0","0","2.60",".915"
`

const teamTwoExport = `"Skaters"
"Pos","Player","Team","GP","G","A","Pts","+/-","PIM","SOG","PPP","SHP","Hit","Blk"
"C","Traded Guy","NYR","62","16","24","40","4","18","140","9","1","33","17"
"RW","Other Skater","NYR","70","22","18","40","-2","12","160","8","0","30","15"
"Goalies"
"Pos","Player","Team","GP","W-G","SV","SO","G","A","Pts","PIM","PPP","SHP","GAA","SV%"
"G","Other Goalie","NYR","60","33","1,400","5","0","0","0","2","0","0","2.40",".922"
`

func writeExport(t *testing.T, root, team, name, content string) {
	t.Helper()
	dir := filepath.Join(root, team)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImportTree(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "1", "regular-2023-2024.csv", teamOneExport)
	writeExport(t, root, "2", "regular-2023-2024.csv", teamTwoExport)
	writeExport(t, root, "1", "notes.txt", "not an export")

	skaters := &skaterCapture{}
	goalies := &goalieCapture{}
	im := NewImporter(skaters, goalies)

	var results []FileResult
	summary, err := im.ImportTree(context.Background(), root, TreeFilter{}, func(r FileResult) {
		results = append(results, r)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 0, summary.Failures)
	assert.Equal(t, 3, summary.Skaters)
	assert.Equal(t, 2, summary.Goalies)
	assert.Equal(t, 1, summary.DuplicatesDropped)

	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].TeamID)
	assert.Equal(t, 2, results[0].Skaters)
	assert.Equal(t, 1, results[0].Goalies)

	// The (season, report) group reconciles across team files: the traded
	// skater keeps his fuller line and its team attribution.
	require.Len(t, skaters.rows, 3)
	traded := skaters.rows[0]
	assert.Equal(t, "Traded Guy", traded.Name)
	assert.Equal(t, 62, traded.Games)
	assert.Equal(t, "2", traded.TeamID.String)
	assert.Equal(t, 2023, traded.Season)
	assert.Equal(t, "regular", traded.Report)

	require.Len(t, goalies.rows, 2)
	assert.Equal(t, "Home Goalie", goalies.rows[0].Name)
	require.True(t, goalies.rows[0].SavePercent.Valid)
	assert.InDelta(t, 0.915, goalies.rows[0].SavePercent.Float64, 1e-9)

	// One group means one batch per kind.
	assert.Equal(t, 1, skaters.batches)
}

func TestImportTreeFilters(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "1", "regular-2023-2024.csv", teamOneExport)
	writeExport(t, root, "2", "regular-2023-2024.csv", teamTwoExport)

	skaters := &skaterCapture{}
	goalies := &goalieCapture{}
	im := NewImporter(skaters, goalies)

	summary, err := im.ImportTree(context.Background(), root, TreeFilter{TeamID: "1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 2, summary.Skaters)

	summary, err = im.ImportTree(context.Background(), root, TreeFilter{Reports: []stats.ReportType{stats.ReportPlayoffs}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Files)

	summary, err = im.ImportTree(context.Background(), root, TreeFilter{Seasons: []int{1999}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Files)
}

func TestImportTreeSkipsGarbledFiles(t *testing.T) {
	root := t.TempDir()
	writeExport(t, root, "1", "regular-2023-2024.csv", teamOneExport)
	writeExport(t, root, "3", "regular-2022-2023.csv", "no sections in here\n")

	skaters := &skaterCapture{}
	goalies := &goalieCapture{}
	im := NewImporter(skaters, goalies)

	summary, err := im.ImportTree(context.Background(), root, TreeFilter{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 2, summary.Skaters)
}

func TestImportTreeMissingRoot(t *testing.T) {
	im := NewImporter(&skaterCapture{}, &goalieCapture{})
	_, err := im.ImportTree(context.Background(), filepath.Join(t.TempDir(), "absent"), TreeFilter{}, nil)
	assert.Error(t, err)
}

func TestParseTeams(t *testing.T) {
	html := `<html><body>
		<table>
			<tr><td><a href="/newui/fantasy/teamRoster.go;teamId=abc123">Ice Holes</a></td></tr>
			<tr><td><a href="/newui/fantasy/teamRoster.go;teamId=abc123"><img src="x.png"/></a></td></tr>
			<tr><td><a href="/newui/fantasy/teamRoster.go?teamId=def456">Puck Dynasty</a></td></tr>
			<tr><td><a href="/league/rules">Rules</a></td></tr>
		</table>
	</body></html>`

	doc, err := ParseHTML(html)
	require.NoError(t, err)

	teams, err := ParseTeams(doc)
	require.NoError(t, err)
	require.Len(t, teams, 2)

	assert.Equal(t, Team{ID: "abc123", Name: "Ice Holes"}, teams[0])
	assert.Equal(t, Team{ID: "def456", Name: "Puck Dynasty"}, teams[1])
}

func TestParseTeamsEmptyPage(t *testing.T) {
	doc, err := ParseHTML("<html><body><p>nothing</p></body></html>")
	require.NoError(t, err)

	_, err = ParseTeams(doc)
	assert.Error(t, err)
}
