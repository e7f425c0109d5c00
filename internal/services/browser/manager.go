package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
)

// Manager owns Chrome allocator lifecycles. Each Acquire call returns an
// isolated browser session with its own tab context; Close on the handle
// tears down the whole allocation so a crashed run never leaks a Chrome
// process.
type Manager struct {
	config *common.BrowserConfig
	logger arbor.ILogger
}

// Session is a live browser allocation. Ctx is the tab context for
// chromedp.Run calls. Close is idempotent.
type Session struct {
	Ctx context.Context

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	closeOnce     sync.Once
	logger        arbor.ILogger
}

// NewManager creates a browser manager
func NewManager(config *common.BrowserConfig, logger arbor.ILogger) *Manager {
	return &Manager{
		config: config,
		logger: logger,
	}
}

// Acquire launches (or attaches to) a Chrome instance and returns a ready
// session. The returned session must be closed by the caller.
func (m *Manager) Acquire(ctx context.Context, visualDebug bool) (*Session, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if m.config.RemoteURL != "" {
		m.logger.Debug().Str("url", m.config.RemoteURL).Msg("Attaching to remote browser")
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, m.config.RemoteURL)
	} else {
		opts := m.buildAllocatorOptions(visualDebug)
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			m.logger.Debug().Msgf("chromedp: "+s, i...)
		}),
	)

	session := &Session{
		Ctx:           browserCtx,
		allocCancel:   allocCancel,
		browserCancel: browserCancel,
		logger:        m.logger,
	}

	// Startup check: a blank navigation proves Chrome actually launched
	// before the caller invests in the staged run.
	launchCtx, launchCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer launchCancel()

	if err := chromedp.Run(launchCtx, chromedp.Navigate("about:blank")); err != nil {
		session.Close()
		return nil, fmt.Errorf("browser failed startup check: %w", err)
	}

	if err := InstallStealth(browserCtx); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to install stealth script: %w", err)
	}

	// The timezone is part of the device profile; a UTC browser claiming
	// a ja-JP locale is a detection signal
	if action := m.timezoneAction(); action != nil {
		if err := chromedp.Run(browserCtx, action); err != nil {
			session.Close()
			return nil, fmt.Errorf("failed to apply timezone override: %w", err)
		}
	}

	m.logger.Info().Bool("visual_debug", visualDebug).Msg("Browser session acquired")
	return session, nil
}

// timezoneAction returns the emulation override for the configured
// timezone, or nil when unset
func (m *Manager) timezoneAction() chromedp.Action {
	tz := m.config.Timezone
	if tz == "" {
		return nil
	}
	return chromedp.ActionFunc(func(ctx context.Context) error {
		return emulation.SetTimezoneOverride(tz).Do(ctx)
	})
}

// DefaultTimeout returns the per-operation timeout for browser actions
func (m *Manager) DefaultTimeout() time.Duration {
	if m.config.DefaultTimeout > 0 {
		return m.config.DefaultTimeout
	}
	return 25 * time.Second
}

// buildAllocatorOptions creates Chrome allocator options tuned to avoid
// automation detection
func (m *Manager) buildAllocatorOptions(visualDebug bool) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		chromedp.UserAgent(m.config.UserAgent),

		// Stealth flags for bypassing bot detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-popup-blocking", true),

		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("useAutomationExtension", false),

		chromedp.Flag("disable-reading-from-canvas", false),
		chromedp.Flag("enable-webgl", true),

		chromedp.Flag("enable-features", "NetworkService,NetworkServiceInProcess"),
		chromedp.Flag("disable-gpu", false),

		chromedp.Flag("lang", m.config.Locale),
		chromedp.WindowSize(m.config.WindowWidth, m.config.WindowHeight),
	}

	if m.config.Headless && !visualDebug {
		// New headless mode is less detectable than classic headless
		opts = append(opts, chromedp.Flag("headless", "new"))
	}

	return opts
}

// Close tears down the tab and the allocator
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.browserCancel != nil {
			s.browserCancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
		s.logger.Debug().Msg("Browser session closed")
	})
}
