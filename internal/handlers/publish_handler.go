package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/publisher"
	"github.com/akisuperprof-sketch/noteagent/internal/services/settings"
)

// PublishHandler accepts publish-job submissions and streams the job's
// progress back as NDJSON
type PublishHandler struct {
	engine   *publisher.Engine
	jobs     interfaces.JobStorage
	settings *settings.Service
	events   interfaces.EventService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewPublishHandler creates a publish handler
func NewPublishHandler(
	engine *publisher.Engine,
	jobs interfaces.JobStorage,
	settingsService *settings.Service,
	events interfaces.EventService,
	logger arbor.ILogger,
) *PublishHandler {
	return &PublishHandler{
		engine:   engine,
		jobs:     jobs,
		settings: settingsService,
		events:   events,
		validate: validator.New(),
		logger:   logger,
	}
}

// PublishHandler handles POST /api/publish. The response body is a
// stream of line-delimited JSON progress events ending in exactly one
// terminal payload. Caller disconnect cancels the job.
func (h *PublishHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req models.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	// Safety boundary: rejected before any job record exists
	if !RequireDevelopmentMode(w, req.Mode) {
		return
	}

	// Advisory only; logged, never blocks
	h.settings.AllowSubmission(r.Context())

	if req.RequestID == "" {
		req.RequestID = common.NewRequestID()
	}

	job := &models.PublishJob{
		ID:        common.NewJobID(),
		RequestID: req.RequestID,
		ArticleID: req.ArticleID,
		Status:    models.JobStatusPending,
		LastStep:  models.StepPrecheck,
		CreatedAt: time.Now(),
		Title:     req.Title,
		Mode:      req.Mode,
	}
	if err := h.jobs.CreateJob(r.Context(), job); err != nil {
		WriteError(w, http.StatusInternalServerError, "failed to create job: "+err.Error())
		return
	}

	_ = h.events.Publish(r.Context(), interfaces.Event{
		Type:    interfaces.EventJobCreated,
		Payload: map[string]string{"job_id": job.ID, "title": job.Title},
	})

	h.logger.Info().
		Str("job_id", job.ID).
		Str("request_id", req.RequestID).
		Str("title", req.Title).
		Msg("Publish job accepted")

	stream := NewNDJSONStream(w, h.logger)
	defer stream.Close()

	notifier := publisher.MultiNotifier{
		stream,
		publisher.NewEventNotifier(h.events),
	}

	if err := h.engine.Run(r.Context(), job, &req, notifier); err != nil {
		// Terminal error already streamed by the notifier
		return
	}

	h.settings.RecordPost(r.Context())
}
