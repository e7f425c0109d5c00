package settings

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/akisuperprof-sketch/noteagent/internal/interfaces"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

// Service provides developer settings with reload-on-read semantics:
// every Current call merges the persisted override record over the
// compiled-in defaults, so an admin update takes effect for the next job
// without a restart.
type Service struct {
	storage interfaces.SettingsStorage
	events  interfaces.EventService
	logger  arbor.ILogger

	limiter *rate.Limiter

	mu        sync.Mutex
	postCount int
	countDay  string
}

// NewService creates a settings service
func NewService(storage interfaces.SettingsStorage, events interfaces.EventService, logger arbor.ILogger) *Service {
	s := &Service{
		storage: storage,
		events:  events,
		logger:  logger,
	}
	// Seed the limiter from the effective settings so a persisted
	// rate-limit override survives a restart
	perMin := s.Current(context.Background()).RateLimitPerMin
	if perMin <= 0 {
		perMin = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin)
	return s
}

// Current returns the effective settings: compiled defaults merged under
// the persisted override. Storage read failures fall back to defaults
// with a logged diagnostic.
func (s *Service) Current(ctx context.Context) models.DeveloperSettings {
	settings := models.DefaultSettings()

	override, err := s.storage.LoadOverride(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load settings override, using defaults")
		return settings
	}
	if override != nil {
		settings = *override
	}
	return settings
}

// Apply shallow-merges the patch onto the current settings and persists
// the result. Last write wins.
func (s *Service) Apply(ctx context.Context, patch models.SettingsPatch) (models.DeveloperSettings, error) {
	merged := s.Current(ctx).Apply(patch)
	merged.UpdatedAt = time.Now()

	if err := s.storage.SaveOverride(ctx, &merged); err != nil {
		return merged, err
	}

	s.refreshLimiter(merged)

	if s.events != nil {
		_ = s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventSettingsUpdated,
			Payload: merged,
		})
	}

	s.logger.Info().
		Bool("auto_post_enabled", merged.AutoPostEnabled).
		Int("daily_post_limit", merged.DailyPostLimit).
		Msg("Developer settings updated")

	return merged, nil
}

// AllowSubmission applies the advisory rate limiter to a publish request.
// Exceeding the limiter is reported but never blocks: the cap is an
// alerting threshold, not admission control.
func (s *Service) AllowSubmission(ctx context.Context) bool {
	allowed := s.limiter.Allow()
	if !allowed {
		s.logger.Warn().Msg("Publish submission exceeded advisory rate limit")
	}
	return allowed
}

// RecordPost bumps the daily publish counter and warns when the advisory
// daily cap is exceeded
func (s *Service) RecordPost(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := time.Now().Format("2006-01-02")
	if s.countDay != today {
		s.countDay = today
		s.postCount = 0
	}
	s.postCount++

	limit := s.Current(ctx).DailyPostLimit
	if limit > 0 && s.postCount > limit {
		s.logger.Warn().
			Int("count", s.postCount).
			Int("daily_limit", limit).
			Msg("Daily publish count exceeds advisory cap")
	}
}

// ResetDailyCount clears the daily publish counter; wired to the
// midnight cron schedule
func (s *Service) ResetDailyCount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.postCount = 0
	s.countDay = time.Now().Format("2006-01-02")
	s.logger.Debug().Msg("Daily publish counter reset")
}

// DailyCount returns today's publish count
func (s *Service) DailyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postCount
}

func (s *Service) refreshLimiter(settings models.DeveloperSettings) {
	perMin := settings.RateLimitPerMin
	if perMin <= 0 {
		perMin = 1
	}
	s.limiter.SetLimit(rate.Limit(float64(perMin) / 60.0))
	s.limiter.SetBurst(perMin)
}
