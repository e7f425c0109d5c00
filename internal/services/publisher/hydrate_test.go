package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
)

func newHydrationEngine() *Engine {
	return &Engine{
		config: &common.PublisherConfig{
			HydrationMinNodes: 400,
			PlaceholderPath:   "/new",
		},
		logger: arbor.NewLogger(),
	}
}

func TestHydrated_RequiresNodesAndNonPlaceholderURL(t *testing.T) {
	e := newHydrationEngine()

	draftURL := "https://editor.note.com/notes/n4f0c7b884789/edit"

	assert.True(t, e.hydrated(400, draftURL))
	assert.True(t, e.hydrated(1500, draftURL))

	// Node count alone is not readiness: the URL must have left the
	// compose placeholder
	assert.False(t, e.hydrated(1500, "https://editor.note.com/new"))
	assert.False(t, e.hydrated(1500, ""))

	// Nor is the URL alone
	assert.False(t, e.hydrated(399, draftURL))
}

func TestOnPlaceholder_MatchesSegmentBoundary(t *testing.T) {
	e := newHydrationEngine()

	assert.True(t, e.onPlaceholder("https://editor.note.com/new"))
	assert.True(t, e.onPlaceholder("https://editor.note.com/new/"))
	assert.True(t, e.onPlaceholder(""))

	// "/new" inside a longer segment is a real URL, not the placeholder
	assert.False(t, e.onPlaceholder("https://note.com/n/newsletter-20250801"))
	assert.False(t, e.onPlaceholder("https://note.com/renew"))
	assert.False(t, e.onPlaceholder("https://editor.note.com/notes/n4f0c7b884789/edit"))
}

func TestOnPlaceholder_UnparseableURLTreatedAsUnsaved(t *testing.T) {
	e := newHydrationEngine()
	assert.True(t, e.onPlaceholder("://not-a-url"))
}

func TestDismissKey_DispatchesARune(t *testing.T) {
	assert.NotEmpty(t, dismissKey)
}
