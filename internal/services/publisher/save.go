package publisher

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const clickSaveJS = `(() => {
	const labels = ['下書き保存', '保存', 'Save draft', 'Save'];
	for (const el of document.querySelectorAll('button, [role="button"]')) {
		const text = (el.textContent || '').trim();
		if (labels.some(l => text.includes(l))) {
			el.click();
			return true;
		}
	}
	return false;
})()`

// saveDraft clicks the explicit save affordance if one exists; absence
// means the editor autosaves and waiting is the correct action either
// way. It then polls for the URL to move off the compose placeholder,
// which is the signal the draft acquired a persistent identifier.
// A poll timeout is non-fatal here: the current URL is returned and the
// caller decides whether a still-placeholder URL fails the job.
func (e *Engine) saveDraft(ctx context.Context) (string, error) {
	var clickedSave bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(clickSaveJS, &clickedSave)); err != nil {
		e.logger.Warn().Err(err).Msg("Save affordance lookup failed, assuming autosave")
	}
	e.logger.Debug().Bool("explicit_save", clickedSave).Msg("Save triggered")

	deadline := time.Now().Add(e.config.SaveTimeout)
	var location string
	for {
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return location, err
		}
		if !e.onPlaceholder(location) {
			return location, nil
		}
		if time.Now().After(deadline) {
			e.logger.Warn().
				Str("url", location).
				Dur("timeout", e.config.SaveTimeout).
				Msg("Draft URL still on placeholder after save timeout")
			return location, nil
		}
		select {
		case <-ctx.Done():
			return location, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// extractDraftLink parses the current page HTML for a canonical link to
// the saved draft, preferring it over the raw location when present.
// Best-effort: any parse problem just returns the empty string.
func (e *Engine) extractDraftLink(ctx context.Context) string {
	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && !e.onPlaceholder(href) {
		return href
	}
	if href, ok := doc.Find(`a[href*="/notes/"]`).First().Attr("href"); ok && !e.onPlaceholder(href) {
		return href
	}
	return ""
}
