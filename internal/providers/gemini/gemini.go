// Package gemini provides the Google Gemini generation adapter.
package gemini

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
	name           = "gemini"
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	model          = "gemini-1.5-flash"
)

func init() {
	providers.Register(name, New)
}

// Provider implements core.Provider for the Gemini generateContent API.
type Provider struct {
	client *llmclient.Client
	apiKey string
}

// New creates a Gemini provider from factory configuration.
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

// Gemini authenticates with a query-style key carried in a header here to
// keep the key out of URLs and logs.
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("x-goog-api-key", p.apiKey)
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Generate sends one generateContent call. Gemini has no system role on this
// endpoint, so instructions and prompt are concatenated into a single part.
func (p *Provider) Generate(ctx context.Context, req *core.GenerationRequest) (string, error) {
	body := generateContentRequest{
		Contents: []content{{
			Parts: []part{{
				Text: providers.SystemPrompt(req) + "\n\n" + providers.UserPrompt(req),
			}},
		}},
	}

	endpoint := fmt.Sprintf("/models/%s:generateContent", model)
	data, err := p.client.Post(ctx, endpoint, body)
	if err != nil {
		return "", err
	}

	text := gjson.GetBytes(data, "candidates.0.content.parts.0.text").String()
	if text == "" {
		return "", core.NewMalformedResponseError(name, fmt.Errorf("response carries no candidate text"))
	}
	return text, nil
}
