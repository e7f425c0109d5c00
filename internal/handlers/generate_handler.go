package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/generator"
	"github.com/akisuperprof-sketch/noteagent/internal/services/images"
)

// GenerateHandler turns topic memos into article drafts
type GenerateHandler struct {
	generator *generator.Service
	images    *images.Service
	validate  *validator.Validate
	logger    arbor.ILogger
}

// NewGenerateHandler creates a generate handler. images may be nil when
// no provider is configured.
func NewGenerateHandler(generatorService *generator.Service, imageService *images.Service, logger arbor.ILogger) *GenerateHandler {
	return &GenerateHandler{
		generator: generatorService,
		images:    imageService,
		validate:  validator.New(),
		logger:    logger,
	}
}

// GenerateHandler handles POST /api/generate
func (h *GenerateHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	if h.generator == nil {
		WriteError(w, http.StatusServiceUnavailable, "draft generation is not configured")
		return
	}

	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	draft, err := h.generator.Generate(r.Context(), &req)
	if err != nil {
		WriteError(w, http.StatusBadGateway, "draft generation failed: "+err.Error())
		return
	}

	// A missing header image never fails the draft
	if req.WithImage && h.images != nil {
		img, err := h.images.Generate(r.Context(), draft.Title)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Header image generation failed, returning draft without image")
		} else {
			draft.HeaderImage = img.Data
			draft.ImageSource = img.Source
		}
	}

	WriteJSON(w, http.StatusOK, draft)
}
