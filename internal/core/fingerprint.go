package core

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// NormalizePrompt lowercases, trims, and collapses inner whitespace so that
// semantically identical prompts produce the same fingerprint.
func NormalizePrompt(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Fingerprint computes the stable cache key for a request. It hashes the
// canonical serialization of (kind, normalized prompt, style, cardinality);
// category is deliberately excluded because it only annotates persistence
// metadata and does not change generated content.
func Fingerprint(req *GenerationRequest) string {
	canonical := fmt.Sprintf("%s|%s|%s|%d",
		req.Kind,
		NormalizePrompt(req.Prompt),
		NormalizePrompt(req.Style),
		req.CardCount,
	)
	return fmt.Sprintf("fp-%016x", xxhash.Sum64String(canonical))
}
