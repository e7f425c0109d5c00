package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/browser"
)

type fakeJobStore struct {
	updateErr error
	updates   []models.PublishJob
}

func (f *fakeJobStore) CreateJob(ctx context.Context, job *models.PublishJob) error {
	return nil
}

func (f *fakeJobStore) UpdateJob(ctx context.Context, job *models.PublishJob) error {
	f.updates = append(f.updates, *job)
	return f.updateErr
}

func (f *fakeJobStore) GetJob(ctx context.Context, jobID string) (*models.PublishJob, error) {
	return nil, errors.New("not found")
}

func (f *fakeJobStore) ListJobs(ctx context.Context, limit int) ([]*models.PublishJob, error) {
	return nil, nil
}

func (f *fakeJobStore) GetStaleJobs(ctx context.Context, maxIdleMinutes int) ([]*models.PublishJob, error) {
	return nil, nil
}

type fakeSessionStore struct{}

func (fakeSessionStore) Load() (*models.Session, error) { return nil, nil }
func (fakeSessionStore) Save(s *models.Session) error { return nil }

type stubSettings struct {
	settings models.DeveloperSettings
}

func (s stubSettings) Current(ctx context.Context) models.DeveloperSettings {
	return s.settings
}

type recordingNotifier struct {
	steps     []string
	successes []string
	failures  []error
}

func (n *recordingNotifier) Step(jobID, step string) { n.steps = append(n.steps, step) }

func (n *recordingNotifier) Success(jobID, noteURL string) {
	n.successes = append(n.successes, noteURL)
}

func (n *recordingNotifier) Error(jobID string, err error) {
	n.failures = append(n.failures, err)
}

func newTestEngine(t *testing.T, store *fakeJobStore, enabled bool, browserCfg *common.BrowserConfig) *Engine {
	t.Helper()
	if browserCfg == nil {
		browserCfg = &common.BrowserConfig{DefaultTimeout: 5 * time.Second}
	}
	settings := models.DefaultSettings()
	settings.AutoPostEnabled = enabled

	return NewEngine(
		&common.PublisherConfig{
			HomeURL:         "https://note.com",
			NewNoteURL:      "https://editor.note.com/new",
			PlaceholderPath: "/new",
		},
		browser.NewManager(browserCfg, arbor.NewLogger()),
		store,
		fakeSessionStore{},
		stubSettings{settings: settings},
		nil,
		t.TempDir(),
		arbor.NewLogger(),
	)
}

func pendingJob() *models.PublishJob {
	return &models.PublishJob{
		ID:        "job_test",
		Status:    models.JobStatusPending,
		LastStep:  models.StepPrecheck,
		CreatedAt: time.Now(),
		Title:     "draft",
		Mode:      "development",
	}
}

func TestEngineRun_KillSwitchFailsBeforeBrowserInit(t *testing.T) {
	store := &fakeJobStore{}
	engine := newTestEngine(t, store, false, nil)
	notifier := &recordingNotifier{}
	job := pendingJob()

	err := engine.Run(context.Background(), job, &models.PublishRequest{Title: "draft", Body: "text"}, notifier)
	require.Error(t, err)

	var sErr *StageError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, models.ErrCodeKillSwitch, sErr.Code)
	assert.Equal(t, models.StepPrecheck, sErr.Stage)

	// Exactly one terminal event, nothing else reached
	assert.Equal(t, []string{models.StepPrecheck}, notifier.steps)
	assert.Len(t, notifier.failures, 1)
	assert.Empty(t, notifier.successes)

	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Equal(t, models.ErrCodeKillSwitch, job.ErrorCode)
	assert.NotEmpty(t, job.ErrorMessage)
	assert.Equal(t, models.StepPrecheck, job.LastStep)

	// The job never entered the running state
	for _, u := range store.updates {
		assert.NotEqual(t, models.JobStatusRunning, u.Status)
	}
}

func TestEngineRun_StoreWriteFailureStillEmitsTerminalEvent(t *testing.T) {
	store := &fakeJobStore{updateErr: errors.New("disk full")}
	// An unreachable remote browser endpoint fails acquisition fast
	engine := newTestEngine(t, store, true, &common.BrowserConfig{
		RemoteURL:      "ws://127.0.0.1:9/devtools/browser",
		DefaultTimeout: 5 * time.Second,
	})
	notifier := &recordingNotifier{}
	job := pendingJob()

	err := engine.Run(context.Background(), job, &models.PublishRequest{Title: "draft", Body: "text"}, notifier)
	require.Error(t, err)

	var sErr *StageError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, models.ErrCodeBrowserInit, sErr.Code)

	// A broken store never swallows the terminal event, and the run got
	// past the unpersistable start transition
	assert.Contains(t, notifier.steps, models.StepBrowserInit)
	assert.Len(t, notifier.failures, 1)
	assert.Empty(t, notifier.successes)
	assert.True(t, job.IsTerminal())
	assert.NotEmpty(t, job.ErrorMessage)
}

func TestEngineFailJob_NotifiesEvenWhenRecordAlreadyTerminal(t *testing.T) {
	store := &fakeJobStore{}
	engine := newTestEngine(t, store, true, nil)
	notifier := &recordingNotifier{}

	job := pendingJob()
	job.Status = models.JobStatusSuccess

	engine.failJob(context.Background(), job, nil,
		stageFailure(models.StepSave, models.ErrCodeSaveIdentity, errors.New("lost the draft")),
		notifier)

	assert.Len(t, notifier.failures, 1)
}

func TestEngineBounded_CarriesDefaultTimeout(t *testing.T) {
	engine := newTestEngine(t, &fakeJobStore{}, true, &common.BrowserConfig{
		DefaultTimeout: 5 * time.Second,
	})

	ctx, cancel := engine.bounded(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}
