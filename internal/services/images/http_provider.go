package images

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"

	"github.com/akisuperprof-sketch/noteagent/internal/common"
)

// HTTPProvider calls a generic image-generation HTTP endpoint that
// accepts {"prompt": ...} and responds with raw image bytes
type HTTPProvider struct {
	config common.ImageProviderConfig
	client *resty.Client
	logger arbor.ILogger
}

// NewHTTPProvider creates a provider for one configured endpoint
func NewHTTPProvider(config common.ImageProviderConfig, timeout time.Duration, logger arbor.ILogger) *HTTPProvider {
	client := resty.New()
	client.SetTimeout(timeout)
	if config.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+config.APIKey)
	}
	client.SetHeader("Content-Type", "application/json")

	return &HTTPProvider{
		config: config,
		client: client,
		logger: logger,
	}
}

func (p *HTTPProvider) Name() string {
	return p.config.Name
}

func (p *HTTPProvider) Generate(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"prompt": prompt}).
		Post(p.config.URL)
	if err != nil {
		return nil, fmt.Errorf("image request to %s failed: %w", p.config.Name, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("image provider %s returned status %d", p.config.Name, resp.StatusCode())
	}

	body := resp.Body()
	if len(body) == 0 {
		return nil, fmt.Errorf("image provider %s returned an empty body", p.config.Name)
	}
	return body, nil
}
