package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

func TestJobReport_SuccessfulJob(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	started := time.Now().Add(-90 * time.Second)
	finished := time.Now()
	job := &models.PublishJob{
		ID:         "job_1_abc",
		Title:      "テスト記事",
		Mode:       "development",
		Status:     models.JobStatusSuccess,
		LastStep:   models.StepCompleted,
		CreatedAt:  started.Add(-time.Second),
		StartedAt:  &started,
		FinishedAt: &finished,
		NoteURL:    "https://note.com/user/n/n1234567890ab",
	}

	data, err := svc.JobReport(job)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 500)
}

func TestJobReport_FailedJobIncludesDiagnostics(t *testing.T) {
	svc := NewService(arbor.NewLogger())

	job := &models.PublishJob{
		ID:           "job_2_def",
		Title:        "Broken",
		Mode:         "development",
		Status:       models.JobStatusFailed,
		LastStep:     models.StepHydration,
		CreatedAt:    time.Now(),
		ErrorCode:    models.ErrCodeHydration,
		ErrorMessage: "editor did not hydrate within 6 rounds",
	}

	data, err := svc.JobReport(job)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}
