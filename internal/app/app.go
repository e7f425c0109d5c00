package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/handlers"
	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
	"github.com/akisuperprof-sketch/noteagent/internal/services/browser"
	"github.com/akisuperprof-sketch/noteagent/internal/services/events"
	"github.com/akisuperprof-sketch/noteagent/internal/services/generator"
	"github.com/akisuperprof-sketch/noteagent/internal/services/images"
	"github.com/akisuperprof-sketch/noteagent/internal/services/mailer"
	"github.com/akisuperprof-sketch/noteagent/internal/services/publisher"
	"github.com/akisuperprof-sketch/noteagent/internal/services/reports"
	"github.com/akisuperprof-sketch/noteagent/internal/services/settings"
	"github.com/akisuperprof-sketch/noteagent/internal/storage"
	"github.com/akisuperprof-sketch/noteagent/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	StorageManager interfaces.StorageManager
	SessionStore   interfaces.SessionStore
	EventService   interfaces.EventService

	SettingsService *settings.Service
	BrowserManager  *browser.Manager
	MailerService   *mailer.Service
	Engine          *publisher.Engine

	GeneratorService *generator.Service
	ImageService     *images.Service
	ReportService    *reports.Service

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	WSHandler       *handlers.WebSocketHandler
	GenerateHandler *handlers.GenerateHandler
	PublishHandler  *handlers.PublishHandler
	JobHandler      *handlers.JobHandler
	SettingsHandler *handlers.SettingsHandler

	cron *cron.Cron
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.startMaintenance(); err != nil {
		return nil, fmt.Errorf("failed to start maintenance jobs: %w", err)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Bool("generator_enabled", app.GeneratorService != nil).
		Bool("mailer_enabled", app.MailerService.IsConfigured()).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the Badger storage layer and the file-backed
// session store
func (a *App) initStorage() error {
	storageManager, err := badger.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	if err := os.MkdirAll(a.Config.Storage.Screenshots, 0755); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	a.SessionStore = storage.NewFileSessionStore(&a.Config.Session, a.Logger)

	return nil
}

// initServices initializes business services in dependency order
func (a *App) initServices() error {
	a.EventService = events.NewService(a.Logger)

	a.SettingsService = settings.NewService(
		a.StorageManager.SettingsStorage(),
		a.EventService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Settings service initialized")

	a.BrowserManager = browser.NewManager(&a.Config.Browser, a.Logger)
	a.Logger.Debug().
		Bool("headless", a.Config.Browser.Headless).
		Str("remote_url", a.Config.Browser.RemoteURL).
		Msg("Browser manager initialized")

	// The mailer only feeds OTP codes into login. It stays out of the
	// engine when no IMAP account is configured.
	a.MailerService = mailer.NewService(&a.Config.Mailer, a.Logger)
	var otp publisher.OTPFetcher
	if a.MailerService.IsConfigured() {
		otp = a.MailerService
		a.Logger.Debug().Str("host", a.Config.Mailer.Host).Msg("Mailer configured for OTP retrieval")
	} else {
		a.Logger.Debug().Msg("Mailer not configured - OTP challenges will fail")
	}

	a.Engine = publisher.NewEngine(
		&a.Config.Publisher,
		a.BrowserManager,
		a.StorageManager.JobStorage(),
		a.SessionStore,
		a.SettingsService,
		otp,
		a.Config.Storage.Screenshots,
		a.Logger,
	)
	a.Logger.Debug().Msg("Publish engine initialized")

	generatorService, err := generator.NewService(&a.Config.Claude, a.Logger)
	if err != nil {
		a.GeneratorService = nil
		a.Logger.Warn().Err(err).Msg("Failed to initialize generator service - article generation will be unavailable")
		a.Logger.Info().Msg("To enable generation, set NOTEAGENT_CLAUDE_API_KEY or claude.api_key in config")
	} else {
		a.GeneratorService = generatorService
		a.Logger.Debug().Str("model", a.Config.Claude.Model).Msg("Generator service initialized")
	}

	a.ImageService = images.NewService(&a.Config.Gemini, &a.Config.Images, a.Logger)

	a.ReportService = reports.NewService(a.Logger)

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, a.Logger)
	a.GenerateHandler = handlers.NewGenerateHandler(a.GeneratorService, a.ImageService, a.Logger)
	a.PublishHandler = handlers.NewPublishHandler(
		a.Engine,
		a.StorageManager.JobStorage(),
		a.SettingsService,
		a.EventService,
		a.Logger,
	)
	a.JobHandler = handlers.NewJobHandler(a.StorageManager.JobStorage(), a.ReportService, a.Logger)
	a.SettingsHandler = handlers.NewSettingsHandler(a.SettingsService, a.Logger)
}

// startMaintenance registers the recurring housekeeping jobs: the daily
// post counter reset at midnight and the stale job sweep every five
// minutes
func (a *App) startMaintenance() error {
	c := cron.New()

	if _, err := c.AddFunc("0 0 * * *", func() {
		a.SettingsService.ResetDailyCount()
		a.Logger.Info().Msg("Daily post counter reset")
	}); err != nil {
		return fmt.Errorf("failed to schedule daily counter reset: %w", err)
	}

	if _, err := c.AddFunc("*/5 * * * *", a.sweepStaleJobs); err != nil {
		return fmt.Errorf("failed to schedule stale job sweep: %w", err)
	}

	c.Start()
	a.cron = c
	a.Logger.Debug().Msg("Maintenance jobs scheduled")

	return nil
}

// sweepStaleJobs fails running jobs whose heartbeat has gone quiet. A
// crashed or wedged browser run leaves the job record in running state
// forever without this.
func (a *App) sweepStaleJobs() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	staleJobs, err := a.StorageManager.JobStorage().GetStaleJobs(ctx, 15)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to check for stale jobs")
		return
	}
	if len(staleJobs) == 0 {
		return
	}

	a.Logger.Warn().
		Int("count", len(staleJobs)).
		Msg("Detected stale jobs - marking as failed")

	for _, job := range staleJobs {
		if err := job.Fail(models.ErrCodeStale,
			"no heartbeat for 15+ minutes, run presumed dead", "", time.Now()); err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to mark stale job as failed")
			continue
		}
		if err := a.StorageManager.JobStorage().UpdateJob(ctx, job); err != nil {
			a.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist stale job failure")
			continue
		}
		a.Logger.Info().
			Str("job_id", job.ID).
			Str("title", job.Title).
			Str("last_step", job.LastStep).
			Msg("Marked stale job as failed")
	}
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cron != nil {
		stopCtx := a.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-time.After(5 * time.Second):
			a.Logger.Warn().Msg("Timed out waiting for maintenance jobs to finish")
		}
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
