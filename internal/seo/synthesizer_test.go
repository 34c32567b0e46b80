package seo

import (
	"reflect"
	"testing"
	"unicode/utf8"

	"slideforge/internal/core"
)

func TestSynthesizeIsDeterministic(t *testing.T) {
	a := Synthesize("AI in Healthcare", Styles[0])
	b := Synthesize("AI in Healthcare", Styles[0])
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same inputs produced different prompts:\n%+v\n%+v", a, b)
	}
}

func TestSynthesizeTitleLength(t *testing.T) {
	topics := []string{
		"AI",
		"Quantum computing breakthroughs",
		"The unreasonably long trending topic that search engines would never tolerate in a headline",
	}
	for _, topic := range topics {
		p := Synthesize(topic, Styles[0])
		if n := utf8.RuneCountInString(p.Title); n > 60 {
			t.Errorf("title for %q is %d chars, max 60: %q", topic, n, p.Title)
		}
		if p.Title == "" {
			t.Errorf("empty title for %q", topic)
		}
	}
}

func TestSynthesizeNonASCIITopics(t *testing.T) {
	topics := []string{
		"Künstliche Intelligenz im Gesundheitswesen und die Zukunft der Diagnostik",
		"日本市場におけるスタートアップ投資トレンドの長期分析と将来予測レポートまとめ",
		"Стратегии устойчивого развития для производственных компаний в условиях кризиса",
	}
	for _, topic := range topics {
		p := Synthesize(topic, Styles[0])
		if !utf8.ValidString(p.Title) {
			t.Errorf("title for %q is not valid UTF-8: %q", topic, p.Title)
		}
		if !utf8.ValidString(p.Description) {
			t.Errorf("description for %q is not valid UTF-8: %q", topic, p.Description)
		}
		if n := utf8.RuneCountInString(p.Title); n > 60 {
			t.Errorf("title for %q is %d chars, max 60", topic, n)
		}
		if n := utf8.RuneCountInString(p.Description); n < 150 || n > 160 {
			t.Errorf("description for %q is %d chars, want 150-160", topic, n)
		}
	}
}

func TestSynthesizeDescriptionBand(t *testing.T) {
	topics := []string{
		"AI",
		"Remote work",
		"Sustainable supply chain management strategies for manufacturers",
	}
	for _, topic := range topics {
		p := Synthesize(topic, Styles[0])
		if len(p.Description) < 150 || len(p.Description) > 160 {
			t.Errorf("description for %q is %d chars, want 150-160: %q",
				topic, len(p.Description), p.Description)
		}
	}
}

func TestSynthesizeKeywords(t *testing.T) {
	p := Synthesize("Quantum Computing Investment Strategies", Styles[0])
	if len(p.Keywords) == 0 || len(p.Keywords) > 5 {
		t.Fatalf("got %d keywords, want 1-5: %v", len(p.Keywords), p.Keywords)
	}
	if p.Keywords[0] != "quantum" {
		t.Errorf("first keyword = %q, want quantum", p.Keywords[0])
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"AI breakthroughs in robotics", "technology"},
		{"Influencer marketing playbook", "marketing"},
		{"Crypto trading outlook", "finance"},
		{"Online education platforms", "education"},
		{"Mental wellness at work", "health"},
		{"Customer growth tactics", "sales"},
		{"Annual shareholder letter", "business"},
	}
	for _, tt := range tests {
		p := Synthesize(tt.topic, Styles[0])
		if p.Category != tt.want {
			t.Errorf("category for %q = %q, want %q", tt.topic, p.Category, tt.want)
		}
	}
}

func TestSynthesizeNormalizesWhitespace(t *testing.T) {
	p := Synthesize("  remote   work \t trends ", Styles[0])
	if p.Topic != "remote work trends" {
		t.Errorf("topic = %q, want normalized form", p.Topic)
	}
}

func TestBuildRequest(t *testing.T) {
	p := Synthesize("AI in Healthcare", Styles[1])
	req := p.BuildRequest()

	if req.Kind != core.KindTemplate {
		t.Errorf("kind = %q, want template", req.Kind)
	}
	if req.Style != Styles[1] {
		t.Errorf("style = %q, want %q", req.Style, Styles[1])
	}
	if req.CardCount != 12 {
		t.Errorf("card count = %d, want 12", req.CardCount)
	}
	if req.Prompt == "" || req.Category != "technology" {
		t.Errorf("request not fully populated: %+v", req)
	}
}
