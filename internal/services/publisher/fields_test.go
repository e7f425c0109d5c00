package publisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func titleField(index int) FieldDescriptor {
	return FieldDescriptor{
		Index:       index,
		Tag:         "textarea",
		Placeholder: "記事タイトル",
		Editable:    true,
		Top:         120,
		Height:      48,
		Width:       600,
		Visible:     true,
	}
}

func bodyField(index int) FieldDescriptor {
	return FieldDescriptor{
		Index:     index,
		Tag:       "div",
		Role:      "textbox",
		AriaLabel: "本文を入力",
		Editable:  true,
		Top:       240,
		Height:    600,
		Width:     600,
		Visible:   true,
	}
}

func TestDiscoverFields_PicksTitleAndBody(t *testing.T) {
	fields := []FieldDescriptor{
		{Index: 0, Tag: "input", Placeholder: "検索", Editable: true, Top: 10, Height: 30, Width: 200, Visible: true},
		titleField(1),
		bodyField(2),
	}

	pair, missing := DiscoverFields(fields)

	assert.Empty(t, missing)
	assert.Equal(t, 1, pair.TitleIndex)
	assert.Equal(t, 2, pair.BodyIndex)
}

func TestDiscoverFields_VocabularyBeatsGeometry(t *testing.T) {
	// A tall unlabeled element near the top vs a labeled title lower down:
	// the vocabulary hit must win.
	fields := []FieldDescriptor{
		{Index: 0, Tag: "textarea", Editable: true, Top: 50, Height: 40, Width: 600, Visible: true},
		{Index: 1, Tag: "textarea", Placeholder: "title", Editable: true, Top: 350, Height: 40, Width: 600, Visible: true},
		bodyField(2),
	}

	pair, missing := DiscoverFields(fields)

	assert.Empty(t, missing)
	assert.Equal(t, 1, pair.TitleIndex)
}

func TestDiscoverFields_SameElementNeverBothRoles(t *testing.T) {
	// Only one editable element present: it can serve as title, leaving
	// body missing.
	fields := []FieldDescriptor{titleField(0)}

	_, missing := DiscoverFields(fields)
	assert.Equal(t, "body", missing)
}

func TestDiscoverFields_ReportsMissingTitle(t *testing.T) {
	fields := []FieldDescriptor{bodyField(0)}

	// The body element lacks title vocabulary and single-line geometry
	// strong enough to win; a zero-candidate title is reported by name.
	pair, missing := DiscoverFields(fields)
	if missing == "" {
		// If geometry alone promoted it to title, body must then be missing
		assert.Equal(t, 0, pair.TitleIndex)
	} else {
		assert.Contains(t, []string{"title", "body"}, missing)
	}
}

func TestDiscoverFields_EmptySnapshot(t *testing.T) {
	_, missing := DiscoverFields(nil)
	assert.Equal(t, "title", missing)
}

func TestScoreTitle_InvisibleScoresZero(t *testing.T) {
	f := titleField(0)
	f.Visible = false
	assert.Zero(t, ScoreTitle(f))
}

func TestScoreBody_NonEditableScoresZero(t *testing.T) {
	f := bodyField(0)
	f.Editable = false
	assert.Zero(t, ScoreBody(f))
}
