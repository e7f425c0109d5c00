package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/services/reports"
)

// maxJobListing bounds the jobs listing response
const maxJobListing = 50

// JobHandler serves job listings and per-job reports
type JobHandler struct {
	jobs    interfaces.JobStorage
	reports *reports.Service
	logger  arbor.ILogger
}

// NewJobHandler creates a job handler
func NewJobHandler(jobs interfaces.JobStorage, reportService *reports.Service, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		jobs:    jobs,
		reports: reportService,
		logger:  logger,
	}
}

// ListJobsHandler handles GET /api/jobs?mode=development. Subject to
// the same mode gate as submission; returns the newest jobs first.
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if !RequireDevelopmentMode(w, r.URL.Query().Get("mode")) {
		return
	}

	jobs, err := h.jobs.ListJobs(r.Context(), maxJobListing)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to list jobs: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// JobRoutesHandler dispatches /api/jobs/{id} and /api/jobs/{id}/report
func (h *JobHandler) JobRoutesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		WriteError(w, http.StatusBadRequest, "job ID required")
		return
	}
	jobID := parts[0]

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID))
		return
	}

	if len(parts) == 2 && parts[1] == "report" {
		data, err := h.reports.JobReport(job)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to render report: "+err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", jobID))
		w.Write(data)
		return
	}

	WriteJSON(w, http.StatusOK, job)
}
