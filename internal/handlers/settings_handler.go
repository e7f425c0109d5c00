package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/settings"
)

// SettingsHandler exposes the developer settings record
type SettingsHandler struct {
	settings *settings.Service
	logger   arbor.ILogger
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(settingsService *settings.Service, logger arbor.ILogger) *SettingsHandler {
	return &SettingsHandler{
		settings: settingsService,
		logger:   logger,
	}
}

// SettingsHandler handles GET (read effective settings) and POST
// (shallow merge-update) on /api/settings
func (h *SettingsHandler) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		WriteJSON(w, http.StatusOK, h.settings.Current(r.Context()))

	case http.MethodPost:
		var patch models.SettingsPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		merged, err := h.settings.Apply(r.Context(), patch)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to persist settings: "+err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, merged)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
