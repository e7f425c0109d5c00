package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle_HappyPath(t *testing.T) {
	job := &PublishJob{ID: "job_1", Status: JobStatusPending, CreatedAt: time.Now()}

	require.NoError(t, job.Start(time.Now()))
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.Equal(t, 1, job.AttemptCount)
	assert.NotNil(t, job.StartedAt)

	require.NoError(t, job.Complete("https://note.com/user/n/nabc123", time.Now()))
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.NotEmpty(t, job.NoteURL)
	assert.NotNil(t, job.FinishedAt)
	assert.NotNil(t, job.PostedAt)
	assert.True(t, job.IsTerminal())
}

func TestJobStart_OnlyFromPending(t *testing.T) {
	for _, status := range []JobStatus{JobStatusRunning, JobStatusSuccess, JobStatusFailed} {
		job := &PublishJob{ID: "job_1", Status: status}
		assert.Error(t, job.Start(time.Now()), string(status))
	}
}

func TestJobComplete_OnlyFromRunning(t *testing.T) {
	job := &PublishJob{ID: "job_1", Status: JobStatusPending}
	assert.Error(t, job.Complete("url", time.Now()))
}

func TestJobFail_RecordsDiagnostics(t *testing.T) {
	job := &PublishJob{ID: "job_1", Status: JobStatusRunning, LastStep: StepHydration}

	require.NoError(t, job.Fail(ErrCodeHydration, "editor did not hydrate", "/shots/job_1.png", time.Now()))

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, ErrCodeHydration, job.ErrorCode)
	assert.NotEmpty(t, job.ErrorMessage)
	assert.Equal(t, "/shots/job_1.png", job.ErrorScreenshot)
	assert.Equal(t, StepHydration, job.LastStep)
}

func TestJobFail_FromPendingForPrecheck(t *testing.T) {
	// Kill-switch rejections fail the job before it ever starts
	job := &PublishJob{ID: "job_1", Status: JobStatusPending, LastStep: StepPrecheck}
	require.NoError(t, job.Fail(ErrCodeKillSwitch, "automation disabled", "", time.Now()))
	assert.Equal(t, JobStatusFailed, job.Status)
}

func TestJobFail_TerminalIsImmutable(t *testing.T) {
	job := &PublishJob{ID: "job_1", Status: JobStatusSuccess}
	assert.Error(t, job.Fail(ErrCodeInjection, "late failure", "", time.Now()))
	assert.Equal(t, JobStatusSuccess, job.Status)
}

func TestSettingsApply_Idempotent(t *testing.T) {
	enabled := false
	limit := 7
	patch := SettingsPatch{AutoPostEnabled: &enabled, DailyPostLimit: &limit}

	once := DefaultSettings().Apply(patch)
	twice := once.Apply(patch)

	assert.Equal(t, once, twice)
	assert.False(t, once.AutoPostEnabled)
	assert.Equal(t, 7, once.DailyPostLimit)
	// Unpatched keys survive
	assert.Equal(t, DefaultSettings().RateLimitPerMin, once.RateLimitPerMin)
}

func TestSettingsApply_NilFieldsUntouched(t *testing.T) {
	merged := DefaultSettings().Apply(SettingsPatch{})
	assert.Equal(t, DefaultSettings(), merged)
}
