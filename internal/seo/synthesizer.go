// Package seo turns trending topics into generation requests with derived
// SEO metadata. Synthesis is a pure function of (topic, style), which makes
// the output snapshot-testable.
package seo

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"slideforge/internal/core"
)

const (
	maxTitleLen  = 60
	minDescLen   = 150
	maxDescLen   = 160
	maxKeywords  = 5
	defaultCards = 12
)

// Styles is the rotation of style combinations the scheduler cycles through.
var Styles = []string{
	"minimalist_modern_luxury",
	"bold_cinematic_3d",
	"swiss_typography_grid",
	"glassmorphism_futuristic",
	"editorial_magazine_layout",
	"data_viz_storytelling",
}

// categoryKeywords maps categories to the topic words that select them.
// First match wins; the default category is "business".
var categoryKeywords = []struct {
	category string
	words    []string
}{
	{"technology", []string{"tech", "ai", "software", "digital", "cyber", "quantum", "robotics", "computing", "5g"}},
	{"marketing", []string{"marketing", "social", "brand", "advertising", "influencer"}},
	{"finance", []string{"finance", "investment", "crypto", "trading", "funding"}},
	{"education", []string{"education", "learning", "training", "course"}},
	{"health", []string{"health", "wellness", "medical", "fitness", "mental"}},
	{"sales", []string{"sales", "revenue", "growth", "customer", "e-commerce", "ecommerce"}},
}

// Prompt holds a synthesized generation prompt plus its SEO metadata.
type Prompt struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	Category    string   `json:"category"`
	Audience    string   `json:"target_audience"`
	Topic       string   `json:"original_topic"`
	Style       string   `json:"style"`
}

// Synthesize derives SEO fields from a topic and style. Deterministic given
// the same inputs. The title is at most 60 characters and the description
// lands in the 150-160 character band.
func Synthesize(topic, style string) Prompt {
	clean := strings.Join(strings.Fields(topic), " ")
	return Prompt{
		Title:       synthesizeTitle(clean),
		Description: synthesizeDescription(clean),
		Keywords:    extractKeywords(clean),
		Category:    categorize(clean),
		Audience:    "Business professionals and entrepreneurs",
		Topic:       clean,
		Style:       style,
	}
}

// BuildRequest converts a synthesized prompt into the generation request the
// orchestrator consumes.
func (p Prompt) BuildRequest() *core.GenerationRequest {
	prompt := fmt.Sprintf(
		"Create a premium presentation template about: %s. Target audience: %s. Include relevant statistics, a timeline or process flow, and end with a call to action.",
		p.Topic, p.Audience,
	)
	return &core.GenerationRequest{
		Prompt:    prompt,
		Kind:      core.KindTemplate,
		Style:     p.Style,
		Category:  p.Category,
		CardCount: defaultCards,
	}
}

// Lengths are counted in runes so non-ASCII topics never get cut inside a
// multi-byte sequence.
func synthesizeTitle(topic string) string {
	title := fmt.Sprintf("Professional %s Presentation Template", topic)
	if utf8.RuneCountInString(title) > maxTitleLen {
		title = fmt.Sprintf("%s Presentation Template", topic)
	}
	if r := []rune(title); len(r) > maxTitleLen {
		title = strings.TrimSpace(string(r[:maxTitleLen]))
	}
	return title
}

// synthesizeDescription builds a description and pads or truncates it into
// the 150-160 character SEO band.
func synthesizeDescription(topic string) string {
	desc := fmt.Sprintf("Create stunning %s presentations with our premium template. Perfect for professionals and businesses.", topic)

	fillers := []string{
		" Fully customizable.",
		" Ready in minutes.",
		" Modern layouts included.",
		" Built for impact.",
	}
	for _, f := range fillers {
		if utf8.RuneCountInString(desc) >= minDescLen {
			break
		}
		desc += f
	}
	for utf8.RuneCountInString(desc) < minDescLen {
		desc += " Download today."
	}
	if r := []rune(desc); len(r) > maxDescLen {
		desc = strings.TrimSpace(string(r[:maxDescLen]))
	}
	return desc
}

func extractKeywords(topic string) []string {
	var keywords []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		if len(w) > 3 {
			keywords = append(keywords, w)
		}
	}
	keywords = append(keywords, "presentation", "template", "professional")
	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

func categorize(topic string) string {
	lower := strings.ToLower(topic)
	for _, c := range categoryKeywords {
		for _, w := range c.words {
			if strings.Contains(lower, w) {
				return c.category
			}
		}
	}
	return "business"
}
