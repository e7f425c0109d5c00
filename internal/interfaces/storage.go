package interfaces

import (
	"context"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

// JobStorage persists publish job records. The store is append-only from
// the caller's perspective: jobs are created once and then upserted
// whole-record by the automation engine as it advances through stages.
type JobStorage interface {
	// CreateJob appends a new record; the ID must be unique
	CreateJob(ctx context.Context, job *models.PublishJob) error

	// UpdateJob is a full-record upsert keyed by job ID
	UpdateJob(ctx context.Context, job *models.PublishJob) error

	// GetJob returns a job by ID
	GetJob(ctx context.Context, jobID string) (*models.PublishJob, error)

	// ListJobs returns jobs newest-first by StartedAt, truncated to limit.
	// Unreadable storage yields an empty slice, never an error.
	ListJobs(ctx context.Context, limit int) ([]*models.PublishJob, error)

	// GetStaleJobs returns running jobs whose heartbeat is older than
	// maxIdleMinutes
	GetStaleJobs(ctx context.Context, maxIdleMinutes int) ([]*models.PublishJob, error)
}

// SettingsStorage persists the developer settings override record
type SettingsStorage interface {
	// LoadOverride returns the persisted override, or nil when absent
	LoadOverride(ctx context.Context) (*models.DeveloperSettings, error)

	// SaveOverride persists the override record wholesale
	SaveOverride(ctx context.Context, settings *models.DeveloperSettings) error
}

// SessionStore persists the cached authentication snapshot
type SessionStore interface {
	// Load returns the snapshot, or nil when absent or unreadable.
	// Deserialization failures are logged and reported as absent.
	Load() (*models.Session, error)

	// Save atomically overwrites the snapshot
	Save(session *models.Session) error
}

// StorageManager provides access to all storage backends
type StorageManager interface {
	JobStorage() JobStorage
	SettingsStorage() SettingsStorage
	Close() error
}
