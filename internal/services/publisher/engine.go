package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/browser"
)

// SettingsProvider exposes the effective developer settings to the
// precheck stage
type SettingsProvider interface {
	Current(ctx context.Context) models.DeveloperSettings
}

// Engine drives one publish job through the staged editor automation
// sequence. Stages are strictly ordered; each transition persists the
// job record before the progress event is emitted, so an observer never
// sees a step the store does not know about.
type Engine struct {
	config   *common.PublisherConfig
	browser  *browser.Manager
	jobs     interfaces.JobStorage
	sessions interfaces.SessionStore
	settings SettingsProvider
	otp      OTPFetcher

	screenshotDir string
	logger        arbor.ILogger
}

// NewEngine creates a publish engine. otp may be nil when no mail
// fetcher is configured.
func NewEngine(
	config *common.PublisherConfig,
	browserMgr *browser.Manager,
	jobs interfaces.JobStorage,
	sessions interfaces.SessionStore,
	settings SettingsProvider,
	otp OTPFetcher,
	screenshotDir string,
	logger arbor.ILogger,
) *Engine {
	return &Engine{
		config:        config,
		browser:       browserMgr,
		jobs:          jobs,
		sessions:      sessions,
		settings:      settings,
		otp:           otp,
		screenshotDir: screenshotDir,
		logger:        logger,
	}
}

// Run executes the full stage sequence for one job. The job must be in
// pending status. Run always leaves the job terminal and the browser
// context torn down, on every exit path.
func (e *Engine) Run(ctx context.Context, job *models.PublishJob, req *models.PublishRequest, notifier Notifier) error {
	logger := e.logger.WithCorrelationId(job.ID)

	// S01: kill switch check happens before anything else touches a
	// browser or the network.
	e.transition(ctx, job, models.StepPrecheck, notifier)
	if !e.settings.Current(ctx).AutoPostEnabled {
		err := stageFailure(models.StepPrecheck, models.ErrCodeKillSwitch,
			errors.New("automation disabled by kill switch"))
		e.failJob(ctx, job, nil, err, notifier)
		return err
	}

	if err := job.Start(time.Now()); err != nil {
		sErr := stageFailure(models.StepPrecheck, models.ErrCodeInternal, err)
		e.failJob(ctx, job, nil, sErr, notifier)
		return sErr
	}
	// Storage write failures never abort an in-progress run; the record
	// catches up on the next transition
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist job start")
	}

	// S02: browser acquisition. The session handle is closed on every
	// exit path via defer.
	e.transition(ctx, job, models.StepBrowserInit, notifier)
	session, err := e.browser.Acquire(ctx, req.VisualDebug)
	if err != nil {
		sErr := stageFailure(models.StepBrowserInit, models.ErrCodeBrowserInit, err)
		e.failJob(ctx, job, nil, sErr, notifier)
		return sErr
	}
	defer session.Close()

	if snapshot, loadErr := e.sessions.Load(); loadErr == nil && snapshot != nil {
		if restoreErr := browser.RestoreSession(session.Ctx, snapshot); restoreErr != nil {
			logger.Warn().Err(restoreErr).Msg("Failed to restore cached session, proceeding logged out")
		}
	}

	runErr := e.runStages(ctx, session, job, req, notifier)
	if runErr != nil {
		var sErr *StageError
		if !errors.As(runErr, &sErr) {
			code := models.ErrCodeInternal
			if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
				code = models.ErrCodeCancelled
			}
			sErr = stageFailure(job.LastStep, code, runErr)
		}
		e.failJob(ctx, job, session, sErr, notifier)
		return sErr
	}

	return nil
}

// runStages executes S03 through S12 against an acquired browser session
func (e *Engine) runStages(ctx context.Context, session *browser.Session, job *models.PublishJob, req *models.PublishRequest, notifier Notifier) error {
	bctx := session.Ctx
	timeout := e.browser.DefaultTimeout()

	// S03: navigation timeouts are non-fatal because SPA navigation
	// events are unreliable; the DOM is inspected regardless.
	e.transition(ctx, job, models.StepNavigate, notifier)
	navCtx, cancel := context.WithTimeout(bctx, timeout)
	if err := chromedp.Run(navCtx, chromedp.Navigate(e.config.HomeURL)); err != nil {
		e.logger.Warn().Err(err).Str("url", e.config.HomeURL).Msg("Navigation timed out, inspecting DOM anyway")
	}
	cancel()

	// S04 / S05: authentication
	e.transition(ctx, job, models.StepAuthCheck, notifier)
	authed, err := e.isAuthenticated(bctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Auth marker check failed, attempting login")
	}
	if !authed {
		e.transition(ctx, job, models.StepLogin, notifier)
		if err := e.performLogin(bctx, req.Email, req.Password); err != nil {
			return stageFailure(models.StepLogin, models.ErrCodeAuth, err)
		}
	}

	// S06: UI path first, direct compose URL as fallback
	e.transition(ctx, job, models.StepEditorEntry, notifier)
	if err := e.enterEditor(bctx); err != nil {
		return stageFailure(models.StepEditorEntry, models.ErrCodeEditorEntry, err)
	}

	// S07: hydration wait with escalating rescue actions
	e.transition(ctx, job, models.StepHydration, notifier)
	if err := e.waitForHydration(bctx); err != nil {
		return stageFailure(models.StepHydration, models.ErrCodeHydration, err)
	}

	// S08: best-effort, never fails the job
	e.transition(ctx, job, models.StepOverlay, notifier)
	e.dismissOverlays(bctx)

	// S09: field discovery
	e.transition(ctx, job, models.StepFields, notifier)
	fields, err := ExtractFields(bctx)
	if err != nil {
		return stageFailure(models.StepFields, models.ErrCodeFieldMissing, err)
	}
	pair, missing := DiscoverFields(fields)
	if missing != "" {
		return stageFailure(models.StepFields, models.ErrCodeFieldMissing,
			fmt.Errorf("no candidate %s field among %d elements", missing, len(fields)))
	}

	// S10: chunked injection, title then body
	e.transition(ctx, job, models.StepInjection, notifier)
	titlePath, err := InjectText(bctx, pair.TitleIndex, req.Title,
		e.config.TitleChunkSize, e.config.ChunkDelayMin, e.config.ChunkDelayMax)
	if err != nil {
		return stageFailure(models.StepInjection, models.ErrCodeInjection,
			fmt.Errorf("title injection failed: %w", err))
	}
	bodyPath, err := InjectText(bctx, pair.BodyIndex, req.Body,
		e.config.BodyChunkSize, e.config.ChunkDelayMin, e.config.ChunkDelayMax)
	if err != nil {
		return stageFailure(models.StepInjection, models.ErrCodeInjection,
			fmt.Errorf("body injection failed: %w", err))
	}
	e.logger.Debug().
		Str("title_path", string(titlePath)).
		Str("body_path", string(bodyPath)).
		Msg("Content injected")

	// S11: save, then require a non-placeholder URL
	e.transition(ctx, job, models.StepSave, notifier)
	finalURL, err := e.saveDraft(bctx)
	if err != nil {
		return stageFailure(models.StepSave, models.ErrCodeSaveIdentity, err)
	}
	if link := e.extractDraftLink(bctx); link != "" {
		finalURL = link
	}
	if e.onPlaceholder(finalURL) {
		return stageFailure(models.StepSave, models.ErrCodeSaveIdentity,
			fmt.Errorf("draft URL never left the placeholder shape: %s", finalURL))
	}

	// S12: completion
	if err := job.Complete(finalURL, time.Now()); err != nil {
		return err
	}
	job.LastStep = models.StepCompleted
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job completion")
	}
	notifier.Success(job.ID, finalURL)

	e.logger.Info().
		Str("job_id", job.ID).
		Str("note_url", finalURL).
		Msg("Publish job completed")
	return nil
}

const newPostJS = `(() => {
	const labels = ['投稿', '新規作成', 'New post', 'つくる'];
	for (const el of document.querySelectorAll('a, button, [role="button"]')) {
		const text = (el.textContent || '').trim();
		const aria = el.getAttribute('aria-label') || '';
		if (labels.some(l => text.includes(l) || aria.includes(l))) {
			el.click();
			return true;
		}
	}
	return false;
})()`

const textTypeJS = `(() => {
	const labels = ['テキスト', 'Text'];
	for (const el of document.querySelectorAll('a, button, [role="button"], [role="menuitem"]')) {
		const text = (el.textContent || '').trim();
		if (labels.some(l => text === l)) {
			el.click();
			return true;
		}
	}
	return false;
})()`

// enterEditor drives the retried entry into the compose surface
func (e *Engine) enterEditor(ctx context.Context) error {
	policy := NewRetryPolicy()
	return policy.Do(ctx, func() error {
		if err := e.tryEnterEditor(ctx); err != nil {
			e.logger.Warn().Err(err).Msg("Editor entry attempt failed")
			return err
		}
		return nil
	})
}

// tryEnterEditor attempts the UI path to the compose surface and falls
// back to direct navigation. Both paths are tried before failing.
func (e *Engine) tryEnterEditor(ctx context.Context) error {
	var clicked bool
	uiCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := chromedp.Run(uiCtx, chromedp.Evaluate(newPostJS, &clicked))
	if err == nil && clicked {
		time.Sleep(time.Second)
		var pickedType bool
		_ = chromedp.Run(uiCtx, chromedp.Evaluate(textTypeJS, &pickedType))
		cancel()
		if pickedType {
			return nil
		}
	} else {
		cancel()
	}

	e.logger.Debug().Str("url", e.config.NewNoteURL).Msg("UI entry path unavailable, navigating directly")
	navCtx, cancel := context.WithTimeout(ctx, e.browser.DefaultTimeout())
	defer cancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(e.config.NewNoteURL)); err != nil {
		return fmt.Errorf("both UI path and direct navigation failed: %w", err)
	}
	return nil
}

// bounded derives a child context capped at the browser's per-action
// timeout. Every DOM wait inside a stage runs under one of these so a
// vanished selector can never hang a run.
func (e *Engine) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.browser.DefaultTimeout())
}

// transition persists the new stage and bumps the heartbeat before the
// progress event goes out
func (e *Engine) transition(ctx context.Context, job *models.PublishJob, step string, notifier Notifier) {
	job.LastStep = step
	job.Heartbeat = time.Now()
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		e.logger.Warn().Err(err).Str("step", step).Msg("Failed to persist stage transition")
	}
	notifier.Step(job.ID, step)
	e.logger.Info().Str("job_id", job.ID).Str("step", step).Msg("Stage transition")
}

// failJob marks the job failed, attaching a best-effort screenshot in
// the same update, and emits the terminal error event
func (e *Engine) failJob(ctx context.Context, job *models.PublishJob, session *browser.Session, sErr *StageError, notifier Notifier) {
	screenshot := ""
	if session != nil {
		screenshot = e.captureScreenshot(session.Ctx, job.ID)
	}

	// The terminal event goes out even when the record update does not:
	// the caller always receives exactly one terminal payload
	job.LastStep = sErr.Stage
	if err := job.Fail(sErr.Code, sErr.Err.Error(), screenshot, time.Now()); err != nil {
		e.logger.Warn().Err(err).Msg("Could not mark job failed")
	} else if err := e.jobs.UpdateJob(ctx, job); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist job failure")
	}
	notifier.Error(job.ID, sErr)

	e.logger.Error().
		Str("job_id", job.ID).
		Str("stage", sErr.Stage).
		Str("error_code", sErr.Code).
		Err(sErr.Err).
		Msg("Publish job failed")
}

// captureScreenshot is best-effort diagnostics; every error is swallowed
func (e *Engine) captureScreenshot(ctx context.Context, jobID string) string {
	shotCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var buf []byte
	err := chromedp.Run(shotCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().Do(ctx)
		return err
	}))
	if err != nil {
		e.logger.Debug().Err(err).Msg("Failure screenshot capture failed")
		return ""
	}

	if err := os.MkdirAll(e.screenshotDir, 0o755); err != nil {
		return ""
	}
	path := filepath.Join(e.screenshotDir, jobID+".png")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		e.logger.Debug().Err(err).Msg("Failed to write failure screenshot")
		return ""
	}
	return path
}
