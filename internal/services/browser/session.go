package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

// RestoreSession seeds a saved authentication snapshot into the browser.
// Cookies are set through the CDP network domain before any navigation;
// localStorage entries are applied per origin by visiting each origin
// once. A nil or empty snapshot is a no-op.
func RestoreSession(ctx context.Context, session *models.Session) error {
	if session == nil || session.IsEmpty() {
		return nil
	}

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range session.Cookies {
			param := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				param = param.WithExpires(&expires)
			}
			if c.SameSite != "" {
				param = param.WithSameSite(network.CookieSameSite(c.SameSite))
			}
			if err := param.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return err
	}

	for _, origin := range session.Storage {
		if len(origin.Entries) == 0 {
			continue
		}
		payload, err := json.Marshal(origin.Entries)
		if err != nil {
			return fmt.Errorf("failed to encode storage entries for %s: %w", origin.Origin, err)
		}
		script := fmt.Sprintf(`(() => {
			const entries = %s;
			for (const [key, value] of Object.entries(entries)) {
				localStorage.setItem(key, value);
			}
		})()`, string(payload))

		if err := chromedp.Run(ctx,
			chromedp.Navigate(origin.Origin),
			chromedp.Evaluate(script, nil),
		); err != nil {
			return fmt.Errorf("failed to seed localStorage for %s: %w", origin.Origin, err)
		}
	}

	return nil
}

// CaptureSession reads the browser's current cookies and the localStorage
// of the active origin into a snapshot suitable for persistence.
func CaptureSession(ctx context.Context, origin string) (*models.Session, error) {
	session := &models.Session{CapturedAt: time.Now()}

	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to read cookies: %w", err)
		}
		for _, c := range cookies {
			session.Cookies = append(session.Cookies, models.SessionCookie{
				Name:     c.Name,
				Value:    c.Value,
				Domain:   c.Domain,
				Path:     c.Path,
				Expires:  c.Expires,
				HTTPOnly: c.HTTPOnly,
				Secure:   c.Secure,
				SameSite: string(c.SameSite),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	var entries map[string]string
	script := `(() => {
		const out = {};
		for (let i = 0; i < localStorage.length; i++) {
			const key = localStorage.key(i);
			out[key] = localStorage.getItem(key);
		}
		return out;
	})()`
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &entries)); err != nil {
		return nil, fmt.Errorf("failed to read localStorage: %w", err)
	}
	if len(entries) > 0 {
		session.Storage = append(session.Storage, models.OriginStorage{
			Origin:  origin,
			Entries: entries,
		})
	}

	return session, nil
}
