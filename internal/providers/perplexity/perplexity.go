// Package perplexity provides the Perplexity generation adapter.
package perplexity

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"

	"slideforge/internal/core"
	"slideforge/internal/llmclient"
	"slideforge/internal/providers"
)

const (
	name           = "perplexity"
	defaultBaseURL = "https://api.perplexity.ai"
	model          = "sonar"
)

func init() {
	providers.Register(name, New)
}

// Provider implements core.Provider for the Perplexity chat API.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a Perplexity provider from factory configuration.
func New(cfg providers.Config) core.Provider {
	p := &Provider{apiKey: cfg.APIKey}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	p.client = llmclient.New(name, baseURL, cfg.Client, p.setHeaders)
	return p
}

func (p *Provider) Name() string { return name }

func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

// Generate sends one chat completion call.
func (p *Provider) Generate(ctx context.Context, req *core.GenerationRequest) (string, error) {
	body := chatRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: providers.SystemPrompt(req)},
			{Role: "user", Content: providers.UserPrompt(req)},
		},
	}

	data, err := p.client.Post(ctx, "/chat/completions", body)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(data, "choices.0.message.content").String()
	if text == "" {
		return "", core.NewMalformedResponseError(name, fmt.Errorf("response carries no message content"))
	}
	return text, nil
}
