// Package core defines the request, artifact, and provider contracts shared by
// the orchestrator, provider adapters, cache, and scheduler.
package core

import "time"

// ContentKind classifies what kind of content a request asks for.
type ContentKind string

const (
	KindPresentation ContentKind = "presentation"
	KindDocument     ContentKind = "document"
	KindWebpage      ContentKind = "webpage"
	KindSocial       ContentKind = "social"
	KindTemplate     ContentKind = "template"
)

// Valid reports whether the content kind is one of the recognized values.
func (k ContentKind) Valid() bool {
	switch k {
	case KindPresentation, KindDocument, KindWebpage, KindSocial, KindTemplate:
		return true
	}
	return false
}

// GenerationRequest describes a single content generation. It is treated as
// immutable once constructed; its canonical serialization (see Fingerprint)
// is the cache key input.
type GenerationRequest struct {
	Prompt    string      `json:"prompt"`
	Kind      ContentKind `json:"kind"`
	Style     string      `json:"style"`
	Category  string      `json:"category,omitempty"`
	CardCount int         `json:"card_count"`
}

// BlockKind identifies the layout type of a single content block.
type BlockKind string

const (
	BlockTitle      BlockKind = "title"
	BlockContent    BlockKind = "content"
	BlockImage      BlockKind = "image"
	BlockSplit      BlockKind = "split"
	BlockQuote      BlockKind = "quote"
	BlockStats      BlockKind = "stats"
	BlockTimeline   BlockKind = "timeline"
	BlockComparison BlockKind = "comparison"
	BlockCTA        BlockKind = "cta"
	BlockChart      BlockKind = "chart"
)

// recognizedBlockKinds is the closed set of block kinds an artifact may carry.
var recognizedBlockKinds = map[BlockKind]bool{
	BlockTitle:      true,
	BlockContent:    true,
	BlockImage:      true,
	BlockSplit:      true,
	BlockQuote:      true,
	BlockStats:      true,
	BlockTimeline:   true,
	BlockComparison: true,
	BlockCTA:        true,
	BlockChart:      true,
}

// Stat is a single metric shown on a stats block.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Trend string `json:"trend,omitempty"`
}

// Block is one typed content block in a generated artifact.
type Block struct {
	ID       string    `json:"id,omitempty"`
	Kind     BlockKind `json:"type"`
	Title    string    `json:"title,omitempty"`
	Subtitle string    `json:"subtitle,omitempty"`
	Body     string    `json:"body,omitempty"`
	Bullets  []string  `json:"bullets,omitempty"`
	Stats    []Stat    `json:"stats,omitempty"`
}

// ThemeColors holds the color palette attached to an artifact.
type ThemeColors struct {
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
	Text       string `json:"text"`
}

// ThemeFonts holds the typography settings attached to an artifact.
type ThemeFonts struct {
	Heading       string `json:"heading"`
	Body          string `json:"body"`
	HeadingWeight string `json:"heading_weight"`
}

// Theme is the visual theme suggested for an artifact.
type Theme struct {
	Colors ThemeColors `json:"colors"`
	Fonts  ThemeFonts  `json:"fonts"`
}

// Provenance records how an artifact came to exist.
type Provenance struct {
	// Provider is the name of the adapter that produced the artifact
	// ("offline" for the deterministic fallback adapter).
	Provider string `json:"provider"`

	// CacheHit is true when the artifact was served from the response cache.
	CacheHit bool `json:"cache_hit"`

	// Fallback is true when the artifact was produced by local synthesis or
	// the offline adapter rather than a remote generation backend.
	Fallback bool `json:"fallback"`

	// LatencyMS is the wall-clock generation time in milliseconds.
	// Zero for cache hits.
	LatencyMS int64 `json:"latency_ms"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GeneratedArtifact is the validated output of a generation. The orchestrator
// creates it; the persistence collaborator owns it thereafter.
type GeneratedArtifact struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Kind       ContentKind `json:"kind"`
	Style      string      `json:"style,omitempty"`
	Blocks     []Block     `json:"blocks"`
	Theme      Theme       `json:"theme"`
	Tags       []string    `json:"tags,omitempty"`
	Provenance Provenance  `json:"provenance"`
}

// TopicSource tells whether a trending topic came from the live feed or the
// curated fallback set.
type TopicSource string

const (
	SourceLive     TopicSource = "live"
	SourceFallback TopicSource = "fallback"
)

// TrendingTopic is a read-only snapshot of one trending search term for a
// single scheduler cycle.
type TrendingTopic struct {
	Topic     string      `json:"topic"`
	Source    TopicSource `json:"source"`
	FetchedAt time.Time   `json:"fetched_at"`
}
