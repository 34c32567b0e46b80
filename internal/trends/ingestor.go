// Package trends ingests external trending-signal data for the scheduler
// loop. The ingestor fails soft: when the live feed is unavailable it serves
// a curated static topic set instead of propagating an error.
package trends

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"slideforge/internal/core"
)

//go:embed topics.yaml
var curatedTopicsYAML []byte

// DefaultFeedURL is the Google daily trends endpoint.
const DefaultFeedURL = "https://trends.google.com/trends/api/dailytrends?hl=en-US&geo=US"

// maxTopics caps how many topics one cycle sees.
const maxTopics = 30

// Ingestor fetches trending topics with a curated fallback.
type Ingestor struct {
	client  *http.Client
	feedURL string
	curated []string

	// now is injectable for tests.
	now func() time.Time
}

// New creates an ingestor. A nil client falls back to http.DefaultClient;
// an empty feedURL falls back to DefaultFeedURL.
func New(client *http.Client, feedURL string) (*Ingestor, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}

	var doc struct {
		Topics []string `yaml:"topics"`
	}
	if err := yaml.Unmarshal(curatedTopicsYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse curated topics: %w", err)
	}
	if len(doc.Topics) == 0 {
		return nil, fmt.Errorf("curated topic set is empty")
	}

	return &Ingestor{
		client:  client,
		feedURL: feedURL,
		curated: doc.Topics,
		now:     time.Now,
	}, nil
}

// Fetch returns the current trending topics, deduplicated and capped at 30.
// Remote failure is logged once and answered with the curated set tagged
// SourceFallback; Fetch never returns an error or an empty list.
func (i *Ingestor) Fetch(ctx context.Context) []core.TrendingTopic {
	topics, err := i.fetchLive(ctx)
	if err != nil {
		slog.Warn("trend feed unavailable, using curated fallback set", "error", err)
		return i.snapshot(i.curated, core.SourceFallback)
	}
	return i.snapshot(topics, core.SourceLive)
}

func (i *Ingestor) fetchLive(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	topics := parseFeed(body)
	if len(topics) == 0 {
		return nil, fmt.Errorf("feed carried no topics")
	}
	return topics, nil
}

// parseFeed extracts topic strings from the daily trends payload. The feed
// prepends an anti-hijacking prefix (")]}',") before the JSON document.
func parseFeed(body []byte) []string {
	text := string(body)
	if idx := strings.IndexByte(text, '{'); idx > 0 {
		text = text[idx:]
	}
	if !gjson.Valid(text) {
		return nil
	}

	var topics []string
	results := gjson.Get(text, "default.trendingSearchesDays.0.trendingSearches.#.title.query")
	for _, r := range results.Array() {
		if q := strings.TrimSpace(r.String()); q != "" {
			topics = append(topics, q)
		}
	}
	return topics
}

// snapshot dedupes (preserving order), caps, and timestamps a topic list.
func (i *Ingestor) snapshot(topics []string, source core.TopicSource) []core.TrendingTopic {
	seen := make(map[string]bool, len(topics))
	now := i.now().UTC()

	out := make([]core.TrendingTopic, 0, maxTopics)
	for _, t := range topics {
		key := strings.ToLower(strings.TrimSpace(t))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, core.TrendingTopic{Topic: t, Source: source, FetchedAt: now})
		if len(out) == maxTopics {
			break
		}
	}
	return out
}
