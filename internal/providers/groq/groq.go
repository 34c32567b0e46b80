// Package groq provides the Groq generation adapter (OpenAI-compatible API).
package groq

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
	name           = "groq"
	defaultBaseURL = "https://api.groq.com/openai/v1"
	model          = "llama-3.3-70b-versatile"
)

func init() {
	providers.Register(name, New)
}

// Provider implements core.Provider for Groq chat completions.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a Groq provider from factory configuration.
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
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

// Generate sends one chat completion call.
func (p *Provider) Generate(ctx context.Context, req *core.GenerationRequest) (string, error) {
	body := chatRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: providers.SystemPrompt(req)},
			{Role: "user", Content: providers.UserPrompt(req)},
		},
		Temperature: 0.7,
		MaxTokens:   4000,
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
