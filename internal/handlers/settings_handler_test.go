package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/settings"
)

func newSettingsHandler(t *testing.T) *SettingsHandler {
	t.Helper()
	logger := arbor.NewLogger()
	svc := settings.NewService(&fakeSettingsStorage{}, nil, logger)
	return NewSettingsHandler(svc, logger)
}

func TestSettings_GetReturnsEffectiveSettings(t *testing.T) {
	h := newSettingsHandler(t)

	rec := httptest.NewRecorder()
	h.SettingsHandler(rec, httptest.NewRequest("GET", "/api/settings", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.DeveloperSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.AutoPostEnabled)
	assert.Equal(t, 10, got.DailyPostLimit)
}

func TestSettings_PostMergesAndPersists(t *testing.T) {
	h := newSettingsHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/settings", strings.NewReader(`{"auto_post_enabled":false}`))
	h.SettingsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var merged models.DeveloperSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	assert.False(t, merged.AutoPostEnabled)
	// Untouched keys keep defaults
	assert.Equal(t, 10, merged.DailyPostLimit)

	// Next read reflects the persisted override
	rec = httptest.NewRecorder()
	h.SettingsHandler(rec, httptest.NewRequest("GET", "/api/settings", nil))
	var got models.DeveloperSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.AutoPostEnabled)
}

func TestSettings_BadBody(t *testing.T) {
	h := newSettingsHandler(t)

	rec := httptest.NewRecorder()
	h.SettingsHandler(rec, httptest.NewRequest("POST", "/api/settings", strings.NewReader("nope")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings_MethodNotAllowed(t *testing.T) {
	h := newSettingsHandler(t)

	rec := httptest.NewRecorder()
	h.SettingsHandler(rec, httptest.NewRequest("DELETE", "/api/settings", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
