package core

import (
	"testing"
	"unicode/utf8"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  ```json\n{\"a\":1}\n```  ", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDecodeArtifact(t *testing.T) {
	req := &GenerationRequest{Prompt: "q3 review", Kind: KindPresentation, Style: "professional", CardCount: 3}

	raw := "```json\n" + `{
		"title": "Q3 Review",
		"cards": [
			{"type": "title", "title": "Q3 Review", "subtitle": "Revenue and outlook"},
			{"type": "content", "title": "Highlights", "content": {"bullets": ["Revenue up", "Churn down"]}},
			{"type": "stats", "title": "Numbers", "content": {"stats": [{"label": "ARR", "value": "$2M", "trend": "up"}]}}
		]
	}` + "\n```"

	artifact, err := DecodeArtifact(raw, req)
	if err != nil {
		t.Fatalf("DecodeArtifact failed: %v", err)
	}
	if artifact.Title != "Q3 Review" {
		t.Errorf("title = %q, want Q3 Review", artifact.Title)
	}
	if len(artifact.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(artifact.Blocks))
	}
	if artifact.Blocks[0].Kind != BlockTitle {
		t.Errorf("first block kind = %q, want title", artifact.Blocks[0].Kind)
	}
	if len(artifact.Blocks[1].Bullets) != 2 {
		t.Errorf("expected 2 bullets, got %d", len(artifact.Blocks[1].Bullets))
	}
	if len(artifact.Blocks[2].Stats) != 1 || artifact.Blocks[2].Stats[0].Value != "$2M" {
		t.Errorf("stats not decoded: %+v", artifact.Blocks[2].Stats)
	}
	if err := artifact.Validate(); err != nil {
		t.Errorf("decoded artifact should validate: %v", err)
	}
}

func TestDecodeArtifactAcceptsSlidesAlias(t *testing.T) {
	req := &GenerationRequest{Prompt: "x", Kind: KindPresentation}
	raw := `{"title": "T", "slides": [{"type": "title", "title": "T"}]}`

	artifact, err := DecodeArtifact(raw, req)
	if err != nil {
		t.Fatalf("DecodeArtifact failed: %v", err)
	}
	if len(artifact.Blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(artifact.Blocks))
	}
}

func TestDecodeArtifactCardLevelBullets(t *testing.T) {
	req := &GenerationRequest{Prompt: "x", Kind: KindPresentation}
	raw := `{"cards": [{"type": "content", "title": "L", "bullets": ["a", "b", "c"]}]}`

	artifact, err := DecodeArtifact(raw, req)
	if err != nil {
		t.Fatalf("DecodeArtifact failed: %v", err)
	}
	if len(artifact.Blocks[0].Bullets) != 3 {
		t.Errorf("expected card-level bullets to be picked up, got %d", len(artifact.Blocks[0].Bullets))
	}
}

func TestDecodeArtifactRejectsMalformedInput(t *testing.T) {
	req := &GenerationRequest{Prompt: "x", Kind: KindPresentation}

	for _, raw := range []string{
		"I'm sorry, I can't produce JSON for that.",
		`{"title": "no cards here"}`,
		`{"cards": "not an array"}`,
		"",
	} {
		if _, err := DecodeArtifact(raw, req); err == nil {
			t.Errorf("DecodeArtifact(%q) should fail", raw)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := &GeneratedArtifact{Blocks: []Block{{Kind: BlockTitle, Title: "T"}}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid artifact rejected: %v", err)
	}

	empty := &GeneratedArtifact{}
	if err := empty.Validate(); err == nil {
		t.Error("artifact with no blocks should be invalid")
	}

	unknown := &GeneratedArtifact{Blocks: []Block{{Kind: "hologram"}}}
	if err := unknown.Validate(); err == nil {
		t.Error("artifact with unrecognized block kind should be invalid")
	}
}

func TestSynthesizeFallback(t *testing.T) {
	req := &GenerationRequest{Prompt: "the future of remote work", Kind: KindPresentation, Style: "professional"}

	artifact := SynthesizeFallback(req)
	if err := artifact.Validate(); err != nil {
		t.Fatalf("fallback artifact must always validate: %v", err)
	}
	if len(artifact.Blocks) == 0 {
		t.Fatal("fallback artifact has no blocks")
	}

	// Deterministic given the same request.
	again := SynthesizeFallback(req)
	if artifact.Title != again.Title || len(artifact.Blocks) != len(again.Blocks) {
		t.Error("fallback synthesis should be deterministic")
	}
}

func TestSynthesizeFallbackPrefersCategory(t *testing.T) {
	req := &GenerationRequest{Prompt: "something very long and rambling", Kind: KindDocument, Category: "Finance"}
	artifact := SynthesizeFallback(req)
	if artifact.Title == "" {
		t.Fatal("fallback title empty")
	}
}

func TestSynthesizeFallbackNonASCIIPrompt(t *testing.T) {
	req := &GenerationRequest{
		Prompt: "Künstliche Intelligenz verändert die Präsentationsbranche grundlegend und nachhaltig über alle Märkte",
		Kind:   KindPresentation,
		Style:  "creative",
	}
	artifact := SynthesizeFallback(req)
	if !utf8.ValidString(artifact.Title) {
		t.Errorf("title is not valid UTF-8: %q", artifact.Title)
	}
	if n := utf8.RuneCountInString(artifact.Title); n > 60 {
		t.Errorf("title is %d chars, max 60: %q", n, artifact.Title)
	}
	if err := artifact.Validate(); err != nil {
		t.Errorf("fallback artifact must validate: %v", err)
	}
}

func TestTruncateRuneSafe(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello"},
		{"héllo wörld", 7, "héllo w"},
		{"日本語のタイトル", 4, "日本語の"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}
