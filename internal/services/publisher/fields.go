package publisher

import (
	"context"
	"strings"

	"github.com/chromedp/chromedp"
)

// FieldDescriptor is the browser-independent shape of one input-like
// element: the attribute text and geometry the scorer ranks. Extracted
// in a single Evaluate so scoring stays a pure function.
type FieldDescriptor struct {
	Index       int     `json:"index"`
	Tag         string  `json:"tag"`
	Role        string  `json:"role"`
	Placeholder string  `json:"placeholder"`
	AriaLabel   string  `json:"ariaLabel"`
	Editable    bool    `json:"editable"`
	Top         float64 `json:"top"`
	Height      float64 `json:"height"`
	Width       float64 `json:"width"`
	Visible     bool    `json:"visible"`
}

// FieldPair is the outcome of field discovery: element indexes into the
// extraction snapshot for the chosen title and body fields.
type FieldPair struct {
	TitleIndex int
	BodyIndex  int
}

var titleVocabulary = []string{
	"title", "タイトル", "見出し", "headline", "subject",
}

var bodyVocabulary = []string{
	"body", "本文", "記事", "content", "text", "書", "story",
}

const extractFieldsJS = `(() => {
	const out = [];
	const nodes = document.querySelectorAll(
		'input[type="text"], textarea, [contenteditable="true"], [role="textbox"]');
	let i = 0;
	for (const el of nodes) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		out.push({
			index: i++,
			tag: el.tagName.toLowerCase(),
			role: el.getAttribute('role') || '',
			placeholder: el.getAttribute('placeholder') || el.getAttribute('data-placeholder') || '',
			ariaLabel: el.getAttribute('aria-label') || '',
			editable: el.isContentEditable || el.tagName === 'TEXTAREA' || el.tagName === 'INPUT',
			top: rect.top,
			height: rect.height,
			width: rect.width,
			visible: rect.width > 0 && rect.height > 0 &&
				style.visibility !== 'hidden' && style.display !== 'none'
		});
	}
	return out;
})()`

// ExtractFields snapshots every input-like element on the page
func ExtractFields(ctx context.Context) ([]FieldDescriptor, error) {
	var fields []FieldDescriptor
	if err := chromedp.Run(ctx, chromedp.Evaluate(extractFieldsJS, &fields)); err != nil {
		return nil, err
	}
	return fields, nil
}

// ScoreTitle ranks a descriptor as a title field: vocabulary hits on
// placeholder/aria text plus geometry (near the top, single-line
// height). Invisible or non-editable elements score zero.
func ScoreTitle(f FieldDescriptor) float64 {
	if !f.Visible || !f.Editable {
		return 0
	}
	score := 0.0
	score += vocabularyScore(f, titleVocabulary) * 10
	if f.Top < 400 {
		score += 3
	}
	if f.Height > 0 && f.Height < 120 {
		score += 2
	}
	if f.Tag == "textarea" || f.Tag == "input" {
		score += 1
	}
	return score
}

// ScoreBody ranks a descriptor as a body field: vocabulary hits plus a
// tall editable region lower on the page.
func ScoreBody(f FieldDescriptor) float64 {
	if !f.Visible || !f.Editable {
		return 0
	}
	score := 0.0
	score += vocabularyScore(f, bodyVocabulary) * 10
	if f.Height >= 120 {
		score += 3
	}
	if f.Top >= 200 {
		score += 2
	}
	if f.Role == "textbox" || f.Tag == "div" {
		score += 1
	}
	return score
}

// DiscoverFields picks the best title and body candidates from the
// snapshot. The same element never serves both roles; a role with no
// positive-scoring candidate is reported by name.
func DiscoverFields(fields []FieldDescriptor) (FieldPair, string) {
	titleIdx, titleScore := -1, 0.0
	for _, f := range fields {
		if s := ScoreTitle(f); s > titleScore {
			titleIdx, titleScore = f.Index, s
		}
	}

	bodyIdx, bodyScore := -1, 0.0
	for _, f := range fields {
		if f.Index == titleIdx {
			continue
		}
		if s := ScoreBody(f); s > bodyScore {
			bodyIdx, bodyScore = f.Index, s
		}
	}

	switch {
	case titleIdx < 0:
		return FieldPair{}, "title"
	case bodyIdx < 0:
		return FieldPair{}, "body"
	}
	return FieldPair{TitleIndex: titleIdx, BodyIndex: bodyIdx}, ""
}

func vocabularyScore(f FieldDescriptor, vocabulary []string) float64 {
	haystack := strings.ToLower(f.Placeholder + " " + f.AriaLabel)
	score := 0.0
	for _, word := range vocabulary {
		if strings.Contains(haystack, word) {
			score++
		}
	}
	return score
}
