package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hatrick/crease/internal/cache"
	"github.com/hatrick/crease/internal/stats"
	"github.com/hatrick/crease/internal/store"
)

// maxPageSize caps the limit query parameter. Full listings stay available
// by omitting limit entirely.
const maxPageSize = 1000

// StatsProvider is the slice of the stats service the handlers consume.
type StatsProvider interface {
	SkaterSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Skater, error)
	GoalieSeason(ctx context.Context, season int, report stats.ReportType) ([]stats.Goalie, error)
	CombinedSkaters(ctx context.Context, report stats.ReportType, startFrom int) ([]stats.CombinedSkater, error)
	CombinedGoalies(ctx context.Context, report stats.ReportType, startFrom int) ([]stats.CombinedGoalie, error)
	Seasons(ctx context.Context) ([]int, error)
}

// Handler contains dependencies for HTTP handlers. The database and cache
// handles are only consulted by the health check; listings reach them
// through the stats service.
type Handler struct {
	stats StatsProvider
	db    *store.Database
	cache *cache.RedisCache
}

// NewHandler creates a new handler. db and cache may be nil.
func NewHandler(stats StatsProvider, db *store.Database, cache *cache.RedisCache) *Handler {
	return &Handler{
		stats: stats,
		db:    db,
		cache: cache,
	}
}

// HealthCheck reports service health along with per-component status for
// the database and cache.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	components := map[string]string{}

	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			components["database"] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			components["database"] = "up"
		}
	}
	if h.cache != nil {
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			components["cache"] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			components["cache"] = "up"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":     overall,
		"service":    "crease",
		"version":    "1.0.0",
		"components": components,
	})
}

// GetSeasons returns every season with stored rows
func (h *Handler) GetSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.stats.Seasons(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch seasons", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"seasons": seasons,
		"count":   len(seasons),
	})
}

// GetSkaters returns one season's skaters, scored, sorted, and paginated.
//
// Query parameters: season (required), report (regular|playoffs|both,
// default regular), sortBy (default score), order (asc|desc, default desc),
// limit, offset.
func (h *Handler) GetSkaters(w http.ResponseWriter, r *http.Request) {
	season, err := parseSeasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing or invalid 'season' parameter", err)
		return
	}

	report, err := parseReportParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'report' parameter", err)
		return
	}

	listing, err := h.stats.SkaterSeason(r.Context(), season, report)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch skaters", err)
		return
	}

	sortBy, desc, err := parseSortParams(r, "score", stats.OrderDesc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sort parameters", err)
		return
	}
	if err := stats.SortSkaters(listing, sortBy, desc); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'sortBy' parameter", err)
		return
	}

	limit, offset, err := parseWindowParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}
	page := window(listing, limit, offset)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"skaters": page,
		"count":   len(page),
		"total":   len(listing),
		"season":  season,
		"report":  report,
	})
}

// GetGoalies returns one season's goalies, scored, sorted, and paginated.
// Parameters match GetSkaters.
func (h *Handler) GetGoalies(w http.ResponseWriter, r *http.Request) {
	season, err := parseSeasonParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing or invalid 'season' parameter", err)
		return
	}

	report, err := parseReportParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'report' parameter", err)
		return
	}

	listing, err := h.stats.GoalieSeason(r.Context(), season, report)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch goalies", err)
		return
	}

	sortBy, desc, err := parseSortParams(r, "score", stats.OrderDesc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sort parameters", err)
		return
	}
	if err := stats.SortGoalies(listing, sortBy, desc); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'sortBy' parameter", err)
		return
	}

	limit, offset, err := parseWindowParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}
	page := window(listing, limit, offset)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"goalies": page,
		"count":   len(page),
		"total":   len(listing),
		"season":  season,
		"report":  report,
	})
}

// GetCombinedSkaters returns career records folded across every stored
// season, optionally restricted to seasons >= startFrom. Combined views
// default to name order ascending.
func (h *Handler) GetCombinedSkaters(w http.ResponseWriter, r *http.Request) {
	report, err := parseReportParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'report' parameter", err)
		return
	}

	startFrom, err := parseStartFromParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'startFrom' parameter", err)
		return
	}

	listing, err := h.stats.CombinedSkaters(r.Context(), report, startFrom)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch combined skaters", err)
		return
	}

	sortBy, desc, err := parseSortParams(r, "name", stats.OrderAsc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sort parameters", err)
		return
	}
	if err := stats.SortCombinedSkaters(listing, sortBy, desc); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'sortBy' parameter", err)
		return
	}

	limit, offset, err := parseWindowParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}
	page := window(listing, limit, offset)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"skaters": page,
		"count":   len(page),
		"total":   len(listing),
		"report":  report,
	})
}

// GetCombinedGoalies is the goalie counterpart of GetCombinedSkaters.
func (h *Handler) GetCombinedGoalies(w http.ResponseWriter, r *http.Request) {
	report, err := parseReportParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'report' parameter", err)
		return
	}

	startFrom, err := parseStartFromParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'startFrom' parameter", err)
		return
	}

	listing, err := h.stats.CombinedGoalies(r.Context(), report, startFrom)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch combined goalies", err)
		return
	}

	sortBy, desc, err := parseSortParams(r, "name", stats.OrderAsc)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid sort parameters", err)
		return
	}
	if err := stats.SortCombinedGoalies(listing, sortBy, desc); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'sortBy' parameter", err)
		return
	}

	limit, offset, err := parseWindowParams(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}
	page := window(listing, limit, offset)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"goalies": page,
		"count":   len(page),
		"total":   len(listing),
		"report":  report,
	})
}

func parseSeasonParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("season")
	if raw == "" {
		return 0, fmt.Errorf("season is required")
	}
	season, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("season %q is not a year", raw)
	}
	return season, nil
}

func parseReportParam(r *http.Request) (stats.ReportType, error) {
	raw := r.URL.Query().Get("report")
	if raw == "" {
		return stats.ReportRegular, nil
	}
	return stats.ParseReportType(raw)
}

// parseStartFromParam reads the optional starting season for combined
// views. Zero means every stored season.
func parseStartFromParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("startFrom")
	if raw == "" {
		return 0, nil
	}
	startFrom, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("startFrom %q is not a year", raw)
	}
	return startFrom, nil
}

func parseSortParams(r *http.Request, defaultField, defaultOrder string) (sortBy string, desc bool, err error) {
	sortBy = r.URL.Query().Get("sortBy")
	if sortBy == "" {
		sortBy = defaultField
	}

	order := r.URL.Query().Get("order")
	if order == "" {
		order = defaultOrder
	}
	desc, err = stats.ParseOrder(order)
	return sortBy, desc, err
}

func parseWindowParams(r *http.Request) (limit, offset int, err error) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return 0, 0, fmt.Errorf("limit %q is not a non-negative integer", raw)
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, fmt.Errorf("offset %q is not a non-negative integer", raw)
		}
	}
	return limit, offset, nil
}

// window slices one page out of a sorted listing. A zero limit means no
// paging.
func window[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	end := len(list)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return list[offset:end]
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
