package publisher

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// hydrationReady polls the cheap readiness proxies: total DOM node count
// past the threshold and a URL that is no longer the bare compose
// placeholder shape right after a redirect.
func (e *Engine) hydrationReady(ctx context.Context) (bool, error) {
	var nodeCount int
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(`document.getElementsByTagName('*').length`, &nodeCount),
	); err != nil {
		return false, err
	}

	var location string
	if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
		return false, err
	}

	ready := e.hydrated(nodeCount, location)
	e.logger.Debug().
		Int("node_count", nodeCount).
		Int("threshold", e.config.HydrationMinNodes).
		Str("url", location).
		Bool("ready", ready).
		Msg("Hydration poll")

	return ready, nil
}

// hydrated applies the combined readiness rule: enough DOM nodes AND a
// URL that has left the compose placeholder shape. Either alone is a
// false positive: shells render hundreds of nodes, and the URL rewrites
// before the editor is interactive.
func (e *Engine) hydrated(nodeCount int, location string) bool {
	return nodeCount >= e.config.HydrationMinNodes && !e.onPlaceholder(location)
}

// waitForHydration runs bounded readiness rounds, applying the policy's
// escalating rescue action after each failed round. Exhaustion is fatal.
func (e *Engine) waitForHydration(ctx context.Context) error {
	policy := NewRescuePolicy(e.config.HydrationMaxRounds, e.config.HydrationInterval)

	for round := 0; ; round++ {
		ready, err := e.hydrationReady(ctx)
		if err != nil {
			e.logger.Warn().Err(err).Int("round", round).Msg("Hydration poll failed")
		}
		if ready {
			return nil
		}
		if policy.Exhausted(round) {
			return fmt.Errorf("editor did not hydrate within %d rounds", policy.MaxRounds)
		}

		action := policy.ActionFor(round)
		if err := e.applyRescue(ctx, action); err != nil {
			e.logger.Warn().Err(err).Str("action", string(action)).Msg("Rescue action failed")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Interval):
		}
	}
}

// dismissKey must be a non-empty raw key: KeyEvent iterates runes and
// dispatches nothing for an empty string
const dismissKey = kb.Escape

func (e *Engine) applyRescue(ctx context.Context, action RescueAction) error {
	switch action {
	case RescueNone:
		return nil
	case RescueDismiss:
		e.logger.Debug().Msg("Rescue: escape key and click-away")
		return chromedp.Run(ctx,
			chromedp.KeyEvent(dismissKey),
			chromedp.Evaluate(`document.body && document.body.click()`, nil),
		)
	case RescueReload:
		e.logger.Debug().Msg("Rescue: hard reload")
		return chromedp.Run(ctx, chromedp.Reload())
	case RescueNavigate:
		e.logger.Debug().Str("url", e.config.NewNoteURL).Msg("Rescue: forced re-navigation")
		return chromedp.Run(ctx, chromedp.Navigate(e.config.NewNoteURL))
	default:
		return fmt.Errorf("unknown rescue action %q", action)
	}
}

// onPlaceholder reports whether the current URL still has the unsaved
// draft placeholder shape. The marker must terminate the path on a
// segment boundary; a substring match would flag real note URLs that
// merely contain it (/n/newsletter-... against "/new").
func (e *Engine) onPlaceholder(location string) bool {
	if location == "" {
		return true
	}
	u, err := url.Parse(location)
	if err != nil {
		return true
	}

	marker := e.config.PlaceholderPath
	if !strings.HasPrefix(marker, "/") {
		marker = "/" + marker
	}
	path := strings.TrimSuffix(u.Path, "/")
	return path == marker || strings.HasSuffix(path, marker)
}
