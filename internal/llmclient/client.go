// Package llmclient provides the base HTTP client shared by generation
// provider adapters: request marshaling, bounded deadlines, and
// classification of transport failures into the core error taxonomy.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/tidwall/gjson"

	"slideforge/internal/core"
)

// HeaderSetter sets provider-specific headers on an outgoing request.
type HeaderSetter func(req *http.Request)

// Client is a thin JSON-over-HTTP client for one provider. The orchestrator
// owns retry policy (there is none per provider; failure advances the
// fallback chain), so the client performs exactly one attempt.
type Client struct {
	provider   string
	baseURL    string
	httpClient *http.Client
	setHeaders HeaderSetter
}

// New creates a client for the named provider.
func New(provider, baseURL string, httpClient *http.Client, setHeaders HeaderSetter) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		provider:   provider,
		baseURL:    baseURL,
		httpClient: httpClient,
		setHeaders: setHeaders,
	}
}

// SetBaseURL overrides the API base URL, e.g. to point at a proxy or a test
// server.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Post sends a JSON body and returns the raw response bytes. Failures are
// returned as typed core errors:
//
//	deadline exceeded        -> provider_timeout
//	transport error          -> provider_unreachable
//	HTTP 429                 -> quota_exhausted
//	other non-2xx            -> provider_unreachable (with upstream message)
func (c *Client) Post(ctx context.Context, endpoint string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.setHeaders != nil {
		c.setHeaders(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, core.NewProviderTimeoutError(c.provider, err)
		}
		return nil, core.NewProviderUnreachableError(c.provider, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.NewProviderUnreachableError(c.provider, "failed to read response body", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, core.NewQuotaExhaustedError(c.provider)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, core.NewProviderUnreachableError(c.provider, upstreamMessage(data, resp.StatusCode), nil)
	}
	return data, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// upstreamMessage pulls a human-readable message out of a provider error
// body, falling back to the status code.
func upstreamMessage(body []byte, status int) string {
	if msg := gjson.GetBytes(body, "error.message").String(); msg != "" {
		return msg
	}
	return fmt.Sprintf("upstream returned status %d", status)
}
