// Package anthropic provides the Anthropic Claude generation adapter.
package anthropic

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
	name           = "anthropic"
	defaultBaseURL = "https://api.anthropic.com/v1"
	model          = "claude-3-5-haiku-latest"
	apiVersion     = "2023-06-01"
)

func init() {
	providers.Register(name, New)
}

// Provider implements core.Provider for the Anthropic Messages API.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates an Anthropic provider from factory configuration.
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
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

// Generate sends one Messages API call.
func (p *Provider) Generate(ctx context.Context, req *core.GenerationRequest) (string, error) {
	body := messagesRequest{
		Model:     model,
		MaxTokens: 4000,
		System:    providers.SystemPrompt(req),
		Messages: []message{
			{Role: "user", Content: providers.UserPrompt(req)},
		},
	}

	data, err := p.client.Post(ctx, "/messages", body)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(data, "content.0.text").String()
	if text == "" {
		return "", core.NewMalformedResponseError(name, fmt.Errorf("response carries no content text"))
	}
	return text, nil
}
