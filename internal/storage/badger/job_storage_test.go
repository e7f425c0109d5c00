package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()
	mgr, err := NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestJobStorage_CreateAndGet(t *testing.T) {
	mgr := newTestManager(t)
	jobs := mgr.JobStorage()
	ctx := context.Background()

	job := &models.PublishJob{
		ID:        "job_1_aaa",
		Status:    models.JobStatusPending,
		LastStep:  models.StepPrecheck,
		CreatedAt: time.Now(),
		Title:     "first",
		Mode:      "development",
	}
	require.NoError(t, jobs.CreateJob(ctx, job))

	loaded, err := jobs.GetJob(ctx, "job_1_aaa")
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Title)
	assert.Equal(t, models.JobStatusPending, loaded.Status)
}

func TestJobStorage_CreateRejectsDuplicateID(t *testing.T) {
	mgr := newTestManager(t)
	jobs := mgr.JobStorage()
	ctx := context.Background()

	job := &models.PublishJob{ID: "job_dup", Status: models.JobStatusPending, CreatedAt: time.Now()}
	require.NoError(t, jobs.CreateJob(ctx, job))
	assert.Error(t, jobs.CreateJob(ctx, job))
}

func TestJobStorage_GetMissing(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.JobStorage().GetJob(context.Background(), "absent")
	assert.Error(t, err)
}

func TestJobStorage_ListNewestFirstAndTruncated(t *testing.T) {
	mgr := newTestManager(t)
	jobs := mgr.JobStorage()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 8; i++ {
		started := base.Add(time.Duration(i) * time.Minute)
		job := &models.PublishJob{
			ID:        fmt.Sprintf("job_%d", i),
			Status:    models.JobStatusSuccess,
			CreatedAt: started,
			StartedAt: &started,
		}
		require.NoError(t, jobs.CreateJob(ctx, job))
	}

	listed, err := jobs.ListJobs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, listed, 5)

	// Newest first
	assert.Equal(t, "job_7", listed[0].ID)
	for i := 1; i < len(listed); i++ {
		assert.True(t, jobSortKey(listed[i-1]).After(jobSortKey(listed[i])))
	}
}

func TestJobStorage_StaleJobSweepFindsSilentRunners(t *testing.T) {
	mgr := newTestManager(t)
	jobs := mgr.JobStorage()
	ctx := context.Background()

	stale := &models.PublishJob{
		ID:        "job_stale",
		Status:    models.JobStatusRunning,
		CreatedAt: time.Now().Add(-time.Hour),
		Heartbeat: time.Now().Add(-30 * time.Minute),
	}
	fresh := &models.PublishJob{
		ID:        "job_fresh",
		Status:    models.JobStatusRunning,
		CreatedAt: time.Now(),
		Heartbeat: time.Now(),
	}
	done := &models.PublishJob{
		ID:        "job_done",
		Status:    models.JobStatusSuccess,
		CreatedAt: time.Now().Add(-time.Hour),
		Heartbeat: time.Now().Add(-time.Hour),
	}
	require.NoError(t, jobs.CreateJob(ctx, stale))
	require.NoError(t, jobs.CreateJob(ctx, fresh))
	require.NoError(t, jobs.CreateJob(ctx, done))

	found, err := jobs.GetStaleJobs(ctx, 15)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "job_stale", found[0].ID)
}

func TestSettingsStorage_RoundTrip(t *testing.T) {
	mgr := newTestManager(t)
	settings := mgr.SettingsStorage()
	ctx := context.Background()

	// Absent override reads as nil, nil
	loaded, err := settings.LoadOverride(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	record := models.DefaultSettings()
	record.AutoPostEnabled = false
	require.NoError(t, settings.SaveOverride(ctx, &record))

	loaded, err = settings.LoadOverride(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.False(t, loaded.AutoPostEnabled)
}
