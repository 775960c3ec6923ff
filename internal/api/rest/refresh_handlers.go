package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hatrick/crease/internal/refresh"
)

// RefreshHandler proxies API calls to the refresh service.
type RefreshHandler struct {
	service *refresh.Service
}

// NewRefreshHandler wires the REST layer to the refresh service.
func NewRefreshHandler(service *refresh.Service) *RefreshHandler {
	return &RefreshHandler{service: service}
}

type apiRefreshRequest struct {
	Seasons     []int    `json:"seasons"`
	StartSeason int      `json:"start_season"`
	EndSeason   int      `json:"end_season"`
	Reports     []string `json:"reports"`
	DryRun      bool     `json:"dry_run"`
}

// HandleRefreshRequest handles POST /api/v1/refresh
func (h *RefreshHandler) HandleRefreshRequest(w http.ResponseWriter, r *http.Request) {
	var req apiRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	job, err := h.service.Enqueue(r.Context(), refresh.Request{
		Seasons:     req.Seasons,
		StartSeason: req.StartSeason,
		EndSeason:   req.EndSeason,
		Reports:     req.Reports,
		DryRun:      req.DryRun,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue refresh job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

type apiImportRequest struct {
	Path    string   `json:"path"`
	Seasons []int    `json:"seasons"`
	Reports []string `json:"reports"`
	DryRun  bool     `json:"dry_run"`
}

// HandleImportRequest handles POST /api/v1/import. It enqueues a local
// import job reading previously downloaded export trees.
func (h *RefreshHandler) HandleImportRequest(w http.ResponseWriter, r *http.Request) {
	var req apiImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Path == "" {
		respondError(w, http.StatusBadRequest, "Missing 'path' in request body", nil)
		return
	}

	job, err := h.service.Enqueue(r.Context(), refresh.Request{
		SourcePath: req.Path,
		Seasons:    req.Seasons,
		Reports:    req.Reports,
		DryRun:     req.DryRun,
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue import job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleRefreshStatus handles GET /api/v1/refresh/status
func (h *RefreshHandler) HandleRefreshStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

// HandleListJobs handles GET /api/v1/refresh/jobs
func (h *RefreshHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.RecentJobs(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs", err)
		return
	}

	payloads := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		payloads = append(payloads, jobPayload(job))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  payloads,
		"count": len(payloads),
	})
}

// HandleGetJob handles GET /api/v1/refresh/jobs/{jobID}
func (h *RefreshHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobID"]

	job, events, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch job", err)
		return
	}
	if job == nil {
		respondError(w, http.StatusNotFound, "Job not found", nil)
		return
	}

	eventPayloads := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		eventPayloads = append(eventPayloads, eventPayload(ev))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"job":    jobPayload(job),
		"events": eventPayloads,
	})
}

func buildStatusPayload(summary *refresh.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []map[string]interface{}{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *refresh.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"job_type":         job.JobType,
		"status":           job.Status,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if len(job.Seasons) > 0 {
		payload["seasons"] = job.Seasons
	}
	if len(job.Reports) > 0 {
		payload["reports"] = job.Reports
	}
	if job.SourcePath.Valid {
		payload["source_path"] = job.SourcePath.String
	}
	if job.DryRun {
		payload["dry_run"] = true
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}

func eventPayload(ev *refresh.JobEvent) map[string]interface{} {
	payload := map[string]interface{}{
		"id":         ev.ID,
		"type":       ev.EventType,
		"message":    ev.Message,
		"created_at": ev.CreatedAt,
	}

	if ev.ProgressCurrent.Valid {
		payload["progress_current"] = ev.ProgressCurrent.Int64
	}
	if ev.ProgressTotal.Valid {
		payload["progress_total"] = ev.ProgressTotal.Int64
	}

	return payload
}
