package alerts

import (
	"crypto/sha256"
	"fmt"
	"regexp"
	"strings"
)

// ContentHasher produces content-based keys for alert summary caching, so
// the same condition reported across sweeps reuses one enhanced summary.
type ContentHasher struct{}

// NewContentHasher creates a new content hasher
func NewContentHasher() *ContentHasher {
	return &ContentHasher{}
}

// HashAlert creates a content hash covering the parts of an alert that make
// it "the same condition": type, port, vessel and the normalized message.
func (h *ContentHasher) HashAlert(alert Alert) string {
	signature := fmt.Sprintf("%s|%s|%s|%s",
		alert.Type,
		alert.PortCode,
		alert.VesselID,
		h.normalizeText(alert.Message),
	)

	hash := sha256.Sum256([]byte(signature))
	return fmt.Sprintf("%x", hash)
}

// normalizeText cleans message text so cosmetic variations hash identically
func (h *ContentHasher) normalizeText(text string) string {
	normalized := strings.ToLower(text)

	normalized = regexp.MustCompile(`\s+`).ReplaceAllString(normalized, " ")
	normalized = regexp.MustCompile(`[.,;:!?()]`).ReplaceAllString(normalized, "")

	// Strip volatile figures that shift between sweeps while the condition
	// itself is unchanged: ETAs, wait hours, clock times
	normalized = regexp.MustCompile(`\d+(\.\d+)?\s*h(ours)?`).ReplaceAllString(normalized, "")
	normalized = regexp.MustCompile(`at \d{1,2}:\d{2}`).ReplaceAllString(normalized, "")

	return strings.TrimSpace(normalized)
}
