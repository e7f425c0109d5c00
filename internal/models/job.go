package models

import (
	"fmt"
	"time"
)

// JobStatus represents the state of a publish job
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// Stage markers persisted as LastStep as the engine advances.
// Stages are strictly sequential; no backward transitions exist outside
// the intra-stage rescue loops.
const (
	StepPrecheck    = "S01: precheck"
	StepBrowserInit = "S02: browser init"
	StepNavigate    = "S03: navigate"
	StepAuthCheck   = "S04: auth check"
	StepLogin       = "S05: login"
	StepEditorEntry = "S06: editor entry"
	StepHydration   = "S07: editor hydration"
	StepOverlay     = "S08: overlay dismissal"
	StepFields      = "S09: field discovery"
	StepInjection   = "S10: content injection"
	StepSave        = "S11: save"
	StepCompleted   = "S12: completed"
)

// Error codes attached to failed jobs, one per fatal failure category
const (
	ErrCodeKillSwitch   = "kill_switch_disabled"
	ErrCodeBrowserInit  = "browser_init_failed"
	ErrCodeAuth         = "authentication_failed"
	ErrCodeEditorEntry  = "editor_entry_failed"
	ErrCodeHydration    = "hydration_timeout"
	ErrCodeFieldMissing = "field_not_found"
	ErrCodeInjection    = "injection_failed"
	ErrCodeSaveIdentity = "draft_not_persisted"
	ErrCodeCancelled    = "cancelled"
	ErrCodeStale        = "stale_no_heartbeat"
	ErrCodeInternal     = "internal_error"
)

// PublishJob represents one attempt to publish an article draft via
// browser automation. Records are append-only: once terminal they are
// never mutated again except for the diagnostic screenshot attached in
// the same update that marks the job failed.
type PublishJob struct {
	ID        string `json:"job_id" badgerhold:"key"`
	RequestID string `json:"request_id,omitempty"`
	ArticleID string `json:"article_id,omitempty"`

	Status       JobStatus `json:"status"`
	LastStep     string    `json:"last_step"`
	AttemptCount int       `json:"attempt_count"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`

	// Heartbeat is bumped on every stage transition; the stale-job
	// sweeper uses it to fail jobs orphaned by a crash.
	Heartbeat time.Time `json:"heartbeat,omitempty"`

	NoteURL         string `json:"note_url,omitempty"`
	ErrorCode       string `json:"error_code,omitempty"`
	ErrorMessage    string `json:"error_message,omitempty"`
	ErrorScreenshot string `json:"error_screenshot,omitempty"`

	Title string `json:"title"`
	Mode  string `json:"mode"`
}

// IsTerminal reports whether the job has reached a final status
func (j *PublishJob) IsTerminal() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusFailed
}

// Start transitions pending -> running. Any other source status is an error.
func (j *PublishJob) Start(now time.Time) error {
	if j.Status != JobStatusPending {
		return fmt.Errorf("cannot start job %s from status %s", j.ID, j.Status)
	}
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Heartbeat = now
	j.AttemptCount++
	return nil
}

// Complete transitions running -> success and records the destination URL
func (j *PublishJob) Complete(noteURL string, now time.Time) error {
	if j.Status != JobStatusRunning {
		return fmt.Errorf("cannot complete job %s from status %s", j.ID, j.Status)
	}
	j.Status = JobStatusSuccess
	j.NoteURL = noteURL
	j.FinishedAt = &now
	j.PostedAt = &now
	return nil
}

// Fail transitions running (or pending, for precheck rejections) -> failed.
// The screenshot path may be empty; it is attached in the same update.
func (j *PublishJob) Fail(code, message, screenshot string, now time.Time) error {
	if j.IsTerminal() {
		return fmt.Errorf("cannot fail job %s: already terminal (%s)", j.ID, j.Status)
	}
	j.Status = JobStatusFailed
	j.ErrorCode = code
	j.ErrorMessage = message
	j.ErrorScreenshot = screenshot
	j.FinishedAt = &now
	return nil
}
