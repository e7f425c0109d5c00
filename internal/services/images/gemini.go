package images

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
)

// GeminiProvider generates header images through the Gemini image model
type GeminiProvider struct {
	config *common.GeminiConfig
	logger arbor.ILogger
}

// NewGeminiProvider creates the Gemini image provider
func NewGeminiProvider(config *common.GeminiConfig, logger arbor.ILogger) *GeminiProvider {
	return &GeminiProvider{
		config: config,
		logger: logger,
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	model := p.config.ImageModel
	if model == "" {
		model = "gemini-2.5-flash-image"
	}

	fullPrompt := fmt.Sprintf(
		"Generate a clean, modern blog header image (16:9, no text overlay) for this article: %s",
		prompt,
	)

	resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{
		{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(fullPrompt)},
		},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini image generation failed: %w", err)
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, nil
			}
		}
	}

	return nil, fmt.Errorf("gemini returned no image data")
}
