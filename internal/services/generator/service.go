package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
	"github.com/akisuperprof-sketch/noteagent/internal/models"
)

const systemPrompt = `You are a professional Japanese blog writer for note.com.
Given a topic memo, write a complete article draft.
Respond with ONLY a JSON object, no code fences, in this shape:
{"title": "...", "body": "... (markdown)", "tags": ["...", "..."]}
The title must be under 60 characters. The body must be well-structured
markdown with headings. Tags are 3 to 5 short keywords.`

// Service turns a topic memo into a publish-ready article draft using
// the Claude API
type Service struct {
	config    *common.ClaudeConfig
	logger    arbor.ILogger
	client    anthropic.Client
	timeout   time.Duration
	maxTokens int

	converter *md.Converter
	markdown  goldmark.Markdown
}

// NewService creates the draft generator
func NewService(config *common.ClaudeConfig, logger arbor.ILogger) (*Service, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set NOTEAGENT_CLAUDE_API_KEY or claude.api_key in config)")
	}

	if config.Model == "" {
		config.Model = "claude-sonnet-4-5"
	}

	timeout, err := time.ParseDuration(config.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout duration '%s': %w", config.Timeout, err)
	}

	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	client := anthropic.NewClient(
		option.WithAPIKey(config.APIKey),
	)

	service := &Service{
		config:    config,
		logger:    logger,
		client:    client,
		timeout:   timeout,
		maxTokens: maxTokens,
		converter: md.NewConverter("", true, nil),
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}

	logger.Debug().
		Str("model", config.Model).
		Dur("timeout", timeout).
		Int("max_tokens", maxTokens).
		Msg("Draft generator initialized")

	return service, nil
}

// Generate produces an article draft from a topic memo. The returned
// draft carries both the markdown body (what gets injected into the
// editor) and rendered preview HTML.
func (s *Service) Generate(ctx context.Context, req *models.GenerateRequest) (*models.ArticleDraft, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	s.logger.Debug().Str("topic", req.Topic).Msg("Starting draft generation")

	resp, err := s.client.Messages.New(timeoutCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.config.Model),
		MaxTokens: int64(s.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("draft generation failed: %w", err)
	}

	var raw strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			raw.WriteString(block.Text)
		}
	}
	if raw.Len() == 0 {
		return nil, fmt.Errorf("no response generated")
	}

	draft, err := s.parseDraft(raw.String())
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("title", draft.Title).
		Int("body_length", len(draft.Body)).
		Dur("duration", time.Since(start)).
		Msg("Draft generated")

	return draft, nil
}

// parseDraft decodes the model response, normalizes an HTML body back to
// markdown, and renders the preview HTML
func (s *Service) parseDraft(raw string) (*models.ArticleDraft, error) {
	payload := stripCodeFence(raw)

	var draft models.ArticleDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return nil, fmt.Errorf("failed to decode draft response: %w", err)
	}
	if draft.Title == "" || draft.Body == "" {
		return nil, fmt.Errorf("draft response missing title or body")
	}

	// Models occasionally answer with an HTML body despite the prompt
	if looksLikeHTML(draft.Body) {
		normalized, err := s.converter.ConvertString(draft.Body)
		if err != nil {
			s.logger.Warn().Err(err).Msg("HTML body normalization failed, keeping raw body")
		} else {
			draft.Body = normalized
		}
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(draft.Body), &buf); err != nil {
		s.logger.Warn().Err(err).Msg("Preview rendering failed")
	} else {
		draft.PreviewHTML = buf.String()
	}

	return &draft, nil
}

func buildUserPrompt(req *models.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", req.Topic)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Audience: %s\n", req.Audience)
	}
	if req.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", req.Tone)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	return b.String()
}

// stripCodeFence unwraps a ```json fenced block if the model added one
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func looksLikeHTML(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "<p>") || strings.Contains(lower, "<div") ||
		strings.Contains(lower, "<h1") || strings.Contains(lower, "<h2")
}
