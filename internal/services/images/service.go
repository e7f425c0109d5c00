package images

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
)

// Image is a generated header image ready to attach to a draft
type Image struct {
	Data   string // Base64-encoded PNG
	Source string // Provider that produced it
}

// Provider produces one header image for a prompt. Providers are tried
// in order; the first success wins.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// Service runs the provider fallback chain. Chain exhaustion is an
// error the caller treats as "no header image", never a publish failure.
type Service struct {
	providers []Provider
	logger    arbor.ILogger
}

// NewService builds the chain from config: Gemini first when an API key
// is present, then each configured HTTP provider in order.
func NewService(gemini *common.GeminiConfig, images *common.ImagesConfig, logger arbor.ILogger) *Service {
	var providers []Provider

	if gemini.APIKey != "" {
		providers = append(providers, NewGeminiProvider(gemini, logger))
	}
	for _, pc := range images.Providers {
		providers = append(providers, NewHTTPProvider(pc, images.Timeout, logger))
	}

	logger.Debug().Int("providers", len(providers)).Msg("Image provider chain built")

	return &Service{
		providers: providers,
		logger:    logger,
	}
}

// Generate walks the chain until a provider returns an image
func (s *Service) Generate(ctx context.Context, prompt string) (*Image, error) {
	if len(s.providers) == 0 {
		return nil, fmt.Errorf("no image providers configured")
	}

	var lastErr error
	for _, p := range s.providers {
		data, err := p.Generate(ctx, prompt)
		if err != nil {
			s.logger.Warn().Err(err).Str("provider", p.Name()).Msg("Image provider failed, trying next")
			lastErr = err
			continue
		}
		s.logger.Info().
			Str("provider", p.Name()).
			Int("bytes", len(data)).
			Msg("Header image generated")
		return &Image{
			Data:   base64.StdEncoding.EncodeToString(data),
			Source: p.Name(),
		}, nil
	}

	return nil, fmt.Errorf("all image providers failed: %w", lastErr)
}
