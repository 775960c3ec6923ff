package fantrax

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatrick/crease/internal/stats"
)

const sampleExport = `"Skaters"
"Pos","Player","Team","GP","G","A","Pts","+/-","PIM","SOG","PPP","SHP","Hit","Blk"
"C","Sidney Crosby","PIT","82","33","56","89","12","24","241","28","1","45","30"
"C,RW","Evgeni Malkin","PIT","68","27","41","68","-5","60","1,024","22","0","55","21"
"D","Kris Letang","PIT","64","8","38","46","3","34","150","12","0","40","110"
"","Totals","","214","68","135","203","10","118","1,415","62","1","140","161"
"Goalies"
"Pos","Player","Team","GP","W-G","SV","SO","G","A","Pts","PIM","PPP","SHP","GAA","SV%"
"G","Tristan Jarry","PIT","56","35","1,322","4","0","2","2","2","0","0","2.45",".919"
"G","Casey DeSmith","PIT","18","26","405","1","0","0","0","0","0","0","-","n/a"
"","Totals","","74","61","1,727","5","0","2","2","2","0","0","2.61",".915"
`

func TestParseExport(t *testing.T) {
	export, err := ParseExport(strings.NewReader(sampleExport), 2023, stats.ReportRegular)
	require.NoError(t, err)
	require.Len(t, export.Skaters, 3)
	require.Len(t, export.Goalies, 2)

	crosby := export.Skaters[0]
	assert.Equal(t, "Sidney Crosby", crosby.Name)
	assert.Equal(t, 2023, crosby.Season)
	assert.Equal(t, "C", crosby.Position)
	assert.Equal(t, 82, crosby.Games)
	assert.Equal(t, 33, crosby.Goals)
	assert.Equal(t, 56, crosby.Assists)
	assert.Equal(t, 89, crosby.Points)
	assert.Equal(t, 12, crosby.PlusMinus)
	assert.Equal(t, 24, crosby.Penalties)
	assert.Equal(t, 241, crosby.Shots)
	assert.Equal(t, 28, crosby.PPP)
	assert.Equal(t, 1, crosby.SHP)
	assert.Equal(t, 45, crosby.Hits)
	assert.Equal(t, 30, crosby.Blocks)

	// Multi-position strings survive as-is; comma-padded counts parse.
	malkin := export.Skaters[1]
	assert.Equal(t, "C,RW", malkin.Position)
	assert.Equal(t, 1024, malkin.Shots)
	assert.Equal(t, -5, malkin.PlusMinus)

	jarry := export.Goalies[0]
	assert.Equal(t, "Tristan Jarry", jarry.Name)
	assert.Equal(t, 56, jarry.Games)
	assert.Equal(t, 35, jarry.Wins)
	assert.Equal(t, 1322, jarry.Saves)
	assert.Equal(t, 4, jarry.Shutouts)
	require.NotNil(t, jarry.GAA)
	assert.InDelta(t, 2.45, *jarry.GAA, 1e-9)
	require.NotNil(t, jarry.SavePercent)
	assert.InDelta(t, 0.919, *jarry.SavePercent, 1e-9)
}

func TestParseExportGarbledRatesBecomeNil(t *testing.T) {
	export, err := ParseExport(strings.NewReader(sampleExport), 2023, stats.ReportRegular)
	require.NoError(t, err)

	// "-" and "n/a" cells must read as absent, not as 0.00.
	desmith := export.Goalies[1]
	assert.Nil(t, desmith.GAA)
	assert.Nil(t, desmith.SavePercent)
}

func TestParseExportSwapsInvertedGoalieColumns(t *testing.T) {
	export, err := ParseExport(strings.NewReader(sampleExport), 2023, stats.ReportRegular)
	require.NoError(t, err)

	// DeSmith's row ships GP=18, W-G=26. No goalie wins more games than
	// they play, so the values swap back.
	desmith := export.Goalies[1]
	assert.Equal(t, 26, desmith.Games)
	assert.Equal(t, 18, desmith.Wins)
}

func TestParseExportHeaderOrderDoesNotMatter(t *testing.T) {
	// Older exports put W-G before GP; the header index absorbs that.
	reordered := `"Goalies"
"Pos","Player","Team","W-G","GP","SV","SO","G","A","Pts","PIM","PPP","SHP","GAA","SV%"
"G","Old Timer","CHI","30","60","900","2","0","1","1","0","0","0","2.80",".905"
`
	export, err := ParseExport(strings.NewReader(reordered), 2014, stats.ReportRegular)
	require.NoError(t, err)
	require.Len(t, export.Goalies, 1)

	assert.Equal(t, 60, export.Goalies[0].Games)
	assert.Equal(t, 30, export.Goalies[0].Wins)
}

func TestParseExportSkipsTotalsRows(t *testing.T) {
	export, err := ParseExport(strings.NewReader(sampleExport), 2023, stats.ReportRegular)
	require.NoError(t, err)

	for _, s := range export.Skaters {
		assert.NotEqual(t, "Totals", s.Name)
	}
	for _, g := range export.Goalies {
		assert.NotEqual(t, "Totals", g.Name)
	}
}

func TestParseExportNoSections(t *testing.T) {
	_, err := ParseExport(strings.NewReader("\"Pos\",\"Player\"\n\"C\",\"Nobody\"\n"), 2023, stats.ReportRegular)
	assert.Error(t, err)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{"1,322", 1322},
		{"-7", -7},
		{"", 0},
		{"-", 0},
		{"3.0", 3},
		{"garbage", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseCount(tt.in), "parseCount(%q)", tt.in)
	}
}

func TestParseRate(t *testing.T) {
	assert.Nil(t, parseRate(""))
	assert.Nil(t, parseRate("-"))
	assert.Nil(t, parseRate("abc"))

	got := parseRate(".916")
	require.NotNil(t, got)
	assert.InDelta(t, 0.916, *got, 1e-9)

	zero := parseRate("0.00")
	require.NotNil(t, zero)
	assert.Equal(t, 0.0, *zero)
}

func TestParseExportFilename(t *testing.T) {
	report, season, err := ParseExportFilename("regular-2012-2013.csv")
	require.NoError(t, err)
	assert.Equal(t, stats.ReportRegular, report)
	assert.Equal(t, 2012, season)

	report, season, err = ParseExportFilename("playoffs-2023-2024.csv")
	require.NoError(t, err)
	assert.Equal(t, stats.ReportPlayoffs, report)
	assert.Equal(t, 2023, season)
}

func TestParseExportFilenameRejectsBadNames(t *testing.T) {
	for _, name := range []string{
		"regular-2012-2014.csv", // non-consecutive years
		"both-2012-2013.csv",    // not a stored report
		"regular-2012-2013.txt",
		"notes.csv",
		"regular-12-13.csv",
	} {
		_, _, err := ParseExportFilename(name)
		assert.Error(t, err, "ParseExportFilename(%q)", name)
	}
}

func TestExportFilenameRoundTrip(t *testing.T) {
	name := ExportFilename(stats.ReportPlayoffs, 2019)
	assert.Equal(t, "playoffs-2019-2020.csv", name)

	report, season, err := ParseExportFilename(name)
	require.NoError(t, err)
	assert.Equal(t, stats.ReportPlayoffs, report)
	assert.Equal(t, 2019, season)
}
