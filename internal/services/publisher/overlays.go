package publisher

import (
	"context"

	"github.com/chromedp/chromedp"
)

// dismissOverlaysJS clicks every visible dismiss affordance matching the
// localized label set, then removes known overlay subtrees outright for
// the ones that resist click dismissal. Returns counts for logging.
const dismissOverlaysJS = `(() => {
	const labels = ['次へ', '閉じる', 'スキップ', 'OK', '×', 'Next', 'Close', 'Skip', 'Got it'];
	let clicked = 0;
	for (const el of document.querySelectorAll('button, [role="button"], a')) {
		const text = (el.textContent || '').trim();
		const aria = el.getAttribute('aria-label') || '';
		if (labels.some(l => text === l || aria === l)) {
			const rect = el.getBoundingClientRect();
			if (rect.width > 0 && rect.height > 0) {
				el.click();
				clicked++;
			}
		}
	}
	let removed = 0;
	const overlaySelectors = [
		'[class*="tutorial" i]', '[class*="onboarding" i]',
		'[class*="tooltip" i]', '[data-overlay]', '[class*="coachmark" i]'
	];
	for (const sel of overlaySelectors) {
		for (const el of document.querySelectorAll(sel)) {
			el.remove();
			removed++;
		}
	}
	return { clicked, removed };
})()`

// dismissOverlays is strictly best-effort: overlays are cosmetic
// obstructions, so every failure here is logged and swallowed.
func (e *Engine) dismissOverlays(ctx context.Context) {
	var result struct {
		Clicked int `json:"clicked"`
		Removed int `json:"removed"`
	}
	if err := chromedp.Run(ctx, chromedp.Evaluate(dismissOverlaysJS, &result)); err != nil {
		e.logger.Debug().Err(err).Msg("Overlay dismissal failed, continuing")
		return
	}
	if result.Clicked > 0 || result.Removed > 0 {
		e.logger.Debug().
			Int("clicked", result.Clicked).
			Int("removed", result.Removed).
			Msg("Dismissed overlays")
	}
}
