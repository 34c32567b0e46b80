package providers

import (
	"fmt"

	"slideforge/internal/core"
)

// SystemPrompt builds the structured-output instructions shared by every
// remote adapter. The JSON contract here must stay in sync with
// core.DecodeArtifact.
func SystemPrompt(req *core.GenerationRequest) string {
	return fmt.Sprintf(`You are an expert %s designer. Create a %s %s with %d cards.

CARD TYPES AVAILABLE:
- title: Opening title card with title and subtitle
- content: Text content with bullet points
- image: Full-width image card
- split: Two-column layout (text + image)
- quote: Highlighted quote
- stats: Key metrics/statistics (2-4 numbers)
- timeline: Sequential events with dates
- comparison: Side-by-side comparison
- cta: Call-to-action with button
- chart: Data visualization (bar, line, pie)

RULES:
1. First card MUST be "title" type
2. Vary card types for visual interest
3. Use stats/charts for data
4. End with CTA or summary
5. Keep text concise (3-5 bullets max per card)
6. Use professional, engaging language

OUTPUT FORMAT (JSON):
{
    "title": "Document Title",
    "cards": [
        {"id": "card_1", "type": "title", "title": "Main Title", "subtitle": "Subtitle text"},
        {"id": "card_2", "type": "content", "title": "Section Title", "content": {"bullets": ["Point 1", "Point 2"]}},
        {"id": "card_3", "type": "stats", "title": "Key Metrics", "content": {"stats": [{"label": "Users", "value": "10M+", "trend": "up"}]}}
    ]
}

IMPORTANT: Return ONLY valid JSON, no markdown formatting or code blocks.`,
		req.Kind, req.Style, req.Kind, req.CardCount)
}

// UserPrompt builds the user-turn message for a request.
func UserPrompt(req *core.GenerationRequest) string {
	return fmt.Sprintf("Create a %s about: %s", req.Kind, req.Prompt)
}
