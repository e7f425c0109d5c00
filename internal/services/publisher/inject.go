package publisher

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// InjectionPath records which mechanism delivered the text, for
// diagnosability when an editor silently drops one of them
type InjectionPath string

const (
	PathInsertText InjectionPath = "insert_text"
	PathKeyEvents  InjectionPath = "key_events"
)

// ChunkText splits text into rune-safe chunks of at most size runes.
// Every rune of the input appears in exactly one chunk, in order.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = 1
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// pacingDelay returns a uniformly random delay within [min, max]
func pacingDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// focusField scrolls the snapshot element at index into view and
// focuses it via a real click, which editors expect before typing
func focusField(ctx context.Context, index int) error {
	script := fmt.Sprintf(`(() => {
		const nodes = document.querySelectorAll(
			'input[type="text"], textarea, [contenteditable="true"], [role="textbox"]');
		const el = nodes[%d];
		if (!el) return false;
		el.scrollIntoView({ block: 'center' });
		el.click();
		el.focus();
		return true;
	})()`, index)

	var ok bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("field index %d no longer present", index)
	}
	return nil
}

// fieldTextLength reads the current text length of the focused field so
// the injector can detect a silent drop
func fieldTextLength(ctx context.Context) (int, error) {
	script := `(() => {
		const el = document.activeElement;
		if (!el) return 0;
		const text = el.value !== undefined ? el.value : el.textContent;
		return (text || '').length;
	})()`
	var length int
	if err := chromedp.Run(ctx, chromedp.Evaluate(script, &length)); err != nil {
		return 0, err
	}
	return length, nil
}

// injectChunk delivers one chunk through the CDP insertText primitive,
// which participates in rich-text editors' internal state the way a
// paste does
func injectChunk(ctx context.Context, chunk string) error {
	return chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.InsertText(chunk).Do(ctx)
	}))
}

// injectChunkKeyEvents is the fallback: dispatch per-rune key events
// when insertText was silently ignored
func injectChunkKeyEvents(ctx context.Context, chunk string) error {
	return chromedp.Run(ctx, chromedp.KeyEvent(chunk))
}

// InjectText types text into the field at the given snapshot index in
// bounded chunks with randomized pacing. It verifies the first chunk
// landed and falls back to key-event dispatch if the insert primitive
// failed silently. Returns which path delivered the text.
func InjectText(ctx context.Context, index int, text string, chunkSize int, delayMin, delayMax time.Duration) (InjectionPath, error) {
	if err := focusField(ctx, index); err != nil {
		return "", err
	}

	chunks := ChunkText(text, chunkSize)
	path := PathInsertText

	before, _ := fieldTextLength(ctx)

	for i, chunk := range chunks {
		var err error
		if path == PathInsertText {
			err = injectChunk(ctx, chunk)
		} else {
			err = injectChunkKeyEvents(ctx, chunk)
		}
		if err != nil {
			return path, fmt.Errorf("failed to inject chunk %d/%d: %w", i+1, len(chunks), err)
		}

		// Verify the first chunk actually landed; a silent drop means
		// the editor ignored insertText and needs key events instead.
		if i == 0 && path == PathInsertText {
			after, lenErr := fieldTextLength(ctx)
			if lenErr == nil && after <= before {
				path = PathKeyEvents
				if err := injectChunkKeyEvents(ctx, chunk); err != nil {
					return path, fmt.Errorf("key-event fallback failed: %w", err)
				}
			}
		}

		if i < len(chunks)-1 {
			select {
			case <-ctx.Done():
				return path, ctx.Err()
			case <-time.After(pacingDelay(delayMin, delayMax)):
			}
		}
	}

	return path, nil
}
