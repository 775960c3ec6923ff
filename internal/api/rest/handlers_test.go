package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatrick/crease/internal/stats"
)

type fakeStats struct {
	skaters         []stats.Skater
	goalies         []stats.Goalie
	combinedSkaters []stats.CombinedSkater
	combinedGoalies []stats.CombinedGoalie
	seasons         []int
	err             error

	lastSeason int
	lastReport stats.ReportType
	lastFrom   int
}

func (f *fakeStats) SkaterSeason(_ context.Context, season int, report stats.ReportType) ([]stats.Skater, error) {
	f.lastSeason, f.lastReport = season, report
	return f.skaters, f.err
}

func (f *fakeStats) GoalieSeason(_ context.Context, season int, report stats.ReportType) ([]stats.Goalie, error) {
	f.lastSeason, f.lastReport = season, report
	return f.goalies, f.err
}

func (f *fakeStats) CombinedSkaters(_ context.Context, report stats.ReportType, startFrom int) ([]stats.CombinedSkater, error) {
	f.lastReport, f.lastFrom = report, startFrom
	return f.combinedSkaters, f.err
}

func (f *fakeStats) CombinedGoalies(_ context.Context, report stats.ReportType, startFrom int) ([]stats.CombinedGoalie, error) {
	f.lastReport, f.lastFrom = report, startFrom
	return f.combinedGoalies, f.err
}

func (f *fakeStats) Seasons(context.Context) ([]int, error) {
	return f.seasons, f.err
}

func threeSkaters() []stats.Skater {
	return []stats.Skater{
		{Name: "Mid", Season: 2023, Games: 70, Goals: 20, Score: 50},
		{Name: "Top", Season: 2023, Games: 82, Goals: 40, Score: 100},
		{Name: "Low", Season: 2023, Games: 60, Goals: 10, Score: 25},
	}
}

func doGet(t *testing.T, handlerFunc http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestGetSkatersDefaultSort(t *testing.T) {
	fake := &fakeStats{skaters: threeSkaters()}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetSkaters, "/api/v1/skaters?season=2023")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Skaters []stats.Skater `json:"skaters"`
		Count   int            `json:"count"`
		Total   int            `json:"total"`
		Season  int            `json:"season"`
		Report  string         `json:"report"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2023, body.Season)
	assert.Equal(t, "regular", body.Report)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, 3, body.Total)

	require.Len(t, body.Skaters, 3)
	assert.Equal(t, "Top", body.Skaters[0].Name)
	assert.Equal(t, "Mid", body.Skaters[1].Name)
	assert.Equal(t, "Low", body.Skaters[2].Name)

	assert.Equal(t, 2023, fake.lastSeason)
	assert.Equal(t, stats.ReportRegular, fake.lastReport)
}

func TestGetSkatersWindow(t *testing.T) {
	fake := &fakeStats{skaters: threeSkaters()}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetSkaters, "/api/v1/skaters?season=2023&limit=1&offset=1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Skaters []stats.Skater `json:"skaters"`
		Count   int            `json:"count"`
		Total   int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 1, body.Count)
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Skaters, 1)
	assert.Equal(t, "Mid", body.Skaters[0].Name, "offset 1 of the score-desc order")
}

func TestGetSkatersSortByNameAsc(t *testing.T) {
	fake := &fakeStats{skaters: threeSkaters()}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetSkaters, "/api/v1/skaters?season=2023&sortBy=name&order=asc")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Skaters []stats.Skater `json:"skaters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Skaters, 3)
	assert.Equal(t, "Low", body.Skaters[0].Name)
	assert.Equal(t, "Mid", body.Skaters[1].Name)
	assert.Equal(t, "Top", body.Skaters[2].Name)
}

func TestGetSkatersParamValidation(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"missing season", "/api/v1/skaters"},
		{"season not a year", "/api/v1/skaters?season=abc"},
		{"unknown report", "/api/v1/skaters?season=2023&report=preseason"},
		{"unknown sort field", "/api/v1/skaters?season=2023&sortBy=bogus"},
		{"unknown order", "/api/v1/skaters?season=2023&order=sideways"},
		{"negative limit", "/api/v1/skaters?season=2023&limit=-1"},
		{"garbled offset", "/api/v1/skaters?season=2023&offset=x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeStats{skaters: threeSkaters()}
			h := NewHandler(fake, nil, nil)

			rec := doGet(t, h.GetSkaters, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetGoaliesSortByWins(t *testing.T) {
	fake := &fakeStats{goalies: []stats.Goalie{
		{Name: "Backup", Season: 2023, Games: 20, Wins: 8, Score: 40},
		{Name: "Starter", Season: 2023, Games: 60, Wins: 38, Score: 95},
	}}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetGoalies, "/api/v1/goalies?season=2023&report=playoffs&sortBy=wins&order=asc")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Goalies []stats.Goalie `json:"goalies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Goalies, 2)
	assert.Equal(t, "Backup", body.Goalies[0].Name)
	assert.Equal(t, stats.ReportPlayoffs, fake.lastReport)
}

func TestGetCombinedSkatersDefaults(t *testing.T) {
	fake := &fakeStats{combinedSkaters: []stats.CombinedSkater{
		{Skater: stats.Skater{Name: "Zed", Score: 100}},
		{Skater: stats.Skater{Name: "Abe", Score: 10}},
	}}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetCombinedSkaters, "/api/v1/skaters/combined?report=both&startFrom=2020")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Skaters []stats.CombinedSkater `json:"skaters"`
		Total   int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.Len(t, body.Skaters, 2)
	assert.Equal(t, "Abe", body.Skaters[0].Name, "combined views default to name ascending")
	assert.Equal(t, "Zed", body.Skaters[1].Name)

	assert.Equal(t, stats.ReportBoth, fake.lastReport)
	assert.Equal(t, 2020, fake.lastFrom)
}

func TestGetCombinedGoalies(t *testing.T) {
	fake := &fakeStats{combinedGoalies: []stats.CombinedGoalie{
		{Goalie: stats.Goalie{Name: "Wall", Games: 105, Wins: 65, Score: 88}},
	}}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetCombinedGoalies, "/api/v1/goalies/combined")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Goalies []stats.CombinedGoalie `json:"goalies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Goalies, 1)
	assert.Equal(t, "Wall", body.Goalies[0].Name)
	assert.Equal(t, 0, fake.lastFrom)
}

func TestGetSeasons(t *testing.T) {
	fake := &fakeStats{seasons: []int{2012, 2023}}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetSeasons, "/api/v1/seasons")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Seasons []int `json:"seasons"`
		Count   int   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []int{2012, 2023}, body.Seasons)
	assert.Equal(t, 2, body.Count)
}

func TestGetCombinedSkatersRejectsBadStartFrom(t *testing.T) {
	fake := &fakeStats{}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetCombinedSkaters, "/api/v1/skaters/combined?startFrom=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheckWithoutBackends(t *testing.T) {
	h := NewHandler(&fakeStats{}, nil, nil)

	rec := doGet(t, h.HealthCheck, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status     string            `json:"status"`
		Service    string            `json:"service"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "crease", body.Service)
	assert.Empty(t, body.Components)
}

func TestProviderErrorBecomes500(t *testing.T) {
	fake := &fakeStats{err: errors.New("db down")}
	h := NewHandler(fake, nil, nil)

	rec := doGet(t, h.GetSkaters, "/api/v1/skaters?season=2023")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch skaters", body.Error)
	assert.Equal(t, "db down", body.Details)
}

func TestAPIKeyMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		APIKeyMiddleware("sekrit")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-API-Key", "nope")
		rec := httptest.NewRecorder()
		APIKeyMiddleware("sekrit")(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("right key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-API-Key", "sekrit")
		rec := httptest.NewRecorder()
		APIKeyMiddleware("sekrit")(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("guard disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		APIKeyMiddleware("")(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestServerRouting(t *testing.T) {
	fake := &fakeStats{skaters: threeSkaters(), seasons: []int{2023}}
	srv := NewServer("0", NewHandler(fake, nil, nil), NewRefreshHandler(nil), "sekrit")

	do := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		srv.server.Handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/seasons").Code)
	assert.Equal(t, http.StatusOK, do(http.MethodGet, "/api/v1/skaters?season=2023").Code)
	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/v1/nope").Code)

	// Mutating endpoints refuse requests without the key.
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/v1/refresh").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/v1/import").Code)

	// Preflights clear CORS without the key.
	rec := do(http.MethodOptions, "/api/v1/refresh")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWindow(t *testing.T) {
	list := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, window(list, 0, 0))
	assert.Equal(t, []int{1, 2}, window(list, 2, 0))
	assert.Equal(t, []int{3, 4}, window(list, 2, 2))
	assert.Equal(t, []int{5}, window(list, 2, 4))
	assert.Equal(t, []int{}, window(list, 2, 9))
}
