package core

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SynthesizeFallback deterministically constructs a minimal valid artifact
// from the request's category and style. It backs both the offline fallback
// adapter and the local-synthesis path taken when a reachable provider
// returns undecodable content.
func SynthesizeFallback(req *GenerationRequest) *GeneratedArtifact {
	topic := fallbackTopic(req)
	title := truncate(fmt.Sprintf("%s Overview", topic), 60)

	blocks := []Block{
		{
			ID:       "card_1",
			Kind:     BlockTitle,
			Title:    title,
			Subtitle: "A professionally structured starting point",
		},
		{
			ID:    "card_2",
			Kind:  BlockContent,
			Title: "What This Covers",
			Bullets: []string{
				fmt.Sprintf("Key context and background on %s", strings.ToLower(topic)),
				"The main points your audience needs to take away",
				"Where to go deeper after this overview",
			},
		},
		{
			ID:    "card_3",
			Kind:  BlockStats,
			Title: "At a Glance",
			Stats: []Stat{
				{Label: "Sections", Value: "3"},
				{Label: "Reading Time", Value: "2 min"},
			},
		},
		{
			ID:       "card_4",
			Kind:     BlockCTA,
			Title:    "Next Steps",
			Subtitle: "Replace this outline with your own content",
		},
	}

	return &GeneratedArtifact{
		ID:     uuid.NewString(),
		Title:  title,
		Kind:   req.Kind,
		Style:  req.Style,
		Blocks: blocks,
		Theme:  SuggestTheme(req.Style),
		Tags:   []string{"fallback", string(req.Kind)},
	}
}

func fallbackTopic(req *GenerationRequest) string {
	if req.Category != "" {
		return titleCase(req.Category)
	}
	words := strings.Fields(req.Prompt)
	if len(words) > 6 {
		words = words[:6]
	}
	if len(words) == 0 {
		return titleCase(string(req.Kind))
	}
	return titleCase(strings.Join(words, " "))
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// truncate cuts s to at most n runes, never splitting a multi-byte sequence.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
