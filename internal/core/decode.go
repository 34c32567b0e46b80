package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// StripCodeFence removes a wrapping markdown code fence from provider output.
// Models frequently wrap JSON in ```json ... ``` despite instructions not to.
func StripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	// Drop an optional language tag on the fence line.
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		t = strings.TrimPrefix(t, "json")
	}
	if i := strings.LastIndex(t, "```"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// DecodeArtifact parses raw provider output into a structured artifact.
// Parsing is defensive: fences are stripped first, and both the "cards" and
// the older "slides" array names are accepted. Card content may be a plain
// string or an object carrying bullets and stats.
//
// The returned artifact has no provenance; the orchestrator fills that in.
func DecodeArtifact(raw string, req *GenerationRequest) (*GeneratedArtifact, error) {
	text := StripCodeFence(raw)
	if !gjson.Valid(text) {
		return nil, fmt.Errorf("response is not valid JSON")
	}
	doc := gjson.Parse(text)

	cards := doc.Get("cards")
	if !cards.Exists() {
		cards = doc.Get("slides")
	}
	if !cards.IsArray() {
		return nil, fmt.Errorf("response has no cards array")
	}

	var blocks []Block
	cards.ForEach(func(_, card gjson.Result) bool {
		b := Block{
			ID:       card.Get("id").String(),
			Kind:     BlockKind(strings.ToLower(card.Get("type").String())),
			Title:    card.Get("title").String(),
			Subtitle: card.Get("subtitle").String(),
		}
		content := card.Get("content")
		switch {
		case content.Type == gjson.String:
			b.Body = content.String()
		case content.IsObject():
			for _, bullet := range content.Get("bullets").Array() {
				b.Bullets = append(b.Bullets, bullet.String())
			}
			for _, s := range content.Get("stats").Array() {
				b.Stats = append(b.Stats, Stat{
					Label: s.Get("label").String(),
					Value: s.Get("value").String(),
					Trend: s.Get("trend").String(),
				})
			}
			if body := content.Get("body"); body.Exists() {
				b.Body = body.String()
			}
		}
		// Some models put bullets and stats at the card level instead of
		// under content.
		if len(b.Bullets) == 0 {
			for _, bullet := range card.Get("bullets").Array() {
				b.Bullets = append(b.Bullets, bullet.String())
			}
		}
		if len(b.Stats) == 0 {
			for _, s := range card.Get("stats").Array() {
				b.Stats = append(b.Stats, Stat{
					Label: s.Get("label").String(),
					Value: s.Get("value").String(),
					Trend: s.Get("trend").String(),
				})
			}
		}
		blocks = append(blocks, b)
		return true
	})

	title := doc.Get("title").String()
	if title == "" && len(blocks) > 0 {
		title = blocks[0].Title
	}

	return &GeneratedArtifact{
		ID:     uuid.NewString(),
		Title:  title,
		Kind:   req.Kind,
		Style:  req.Style,
		Blocks: blocks,
		Theme:  SuggestTheme(req.Style),
	}, nil
}
