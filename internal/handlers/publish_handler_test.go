package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/events"
	"github.com/akisuperprof-sketch/noteagent/internal/services/settings"
)

type fakeSettingsStorage struct {
	override *models.DeveloperSettings
}

func (f *fakeSettingsStorage) LoadOverride(ctx context.Context) (*models.DeveloperSettings, error) {
	return f.override, nil
}

func (f *fakeSettingsStorage) SaveOverride(ctx context.Context, s *models.DeveloperSettings) error {
	f.override = s
	return nil
}

func newPublishHandlerForGateTests(t *testing.T, storage *MockJobStorage) *PublishHandler {
	t.Helper()
	logger := arbor.NewLogger()
	eventService := events.NewService(logger)
	t.Cleanup(func() { eventService.Close() })
	settingsService := settings.NewService(&fakeSettingsStorage{}, eventService, logger)

	// The engine is never reached by gated or invalid requests
	return NewPublishHandler(nil, storage, settingsService, eventService, logger)
}

func TestPublish_ModeGateRejectsBeforeSideEffects(t *testing.T) {
	storage := new(MockJobStorage)
	h := newPublishHandlerForGateTests(t, storage)

	body := `{"title":"T","body":"B","mode":"production"}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/publish", strings.NewReader(body))

	h.PublishHandler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	storage.AssertNotCalled(t, "CreateJob", mock.Anything, mock.Anything)
}

func TestPublish_ValidationRejectsMalformedRequests(t *testing.T) {
	storage := new(MockJobStorage)
	h := newPublishHandlerForGateTests(t, storage)

	cases := []string{
		`{"body":"B","mode":"development"}`,              // missing title
		`{"title":"T","mode":"development"}`,             // missing body
		`{"title":"T","body":"B"}`,                       // missing mode
		`{"title":"T","body":"B","mode":"staging"}`,      // unknown mode
		`{"title":"T","body":"B","mode":"development","email":"not-an-email"}`,
		`not json`,
	}

	for _, body := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/api/publish", strings.NewReader(body))

		h.PublishHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	storage.AssertNotCalled(t, "CreateJob", mock.Anything, mock.Anything)
}

func TestPublish_MethodNotAllowed(t *testing.T) {
	h := newPublishHandlerForGateTests(t, new(MockJobStorage))

	rec := httptest.NewRecorder()
	h.PublishHandler(rec, httptest.NewRequest("GET", "/api/publish", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
