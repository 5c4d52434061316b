package alerts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Summarizer produces the one-line operator summary attached to outbound
// notifications.
type Summarizer interface {
	Condense(ctx context.Context, alert Alert) (string, error)
}

// TemplateSummarizer is the zero-dependency fallback: a fixed
// "PORT | SEVERITY TYPE | vessel: message" line.
type TemplateSummarizer struct{}

// Condense renders the template summary
func (t TemplateSummarizer) Condense(_ context.Context, alert Alert) (string, error) {
	subject := alert.VesselName
	if subject == "" {
		subject = alert.VesselID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s %s", alert.PortCode, alert.Severity, alert.Type)
	if subject != "" {
		fmt.Fprintf(&b, " | %s", subject)
	}
	fmt.Fprintf(&b, ": %s", alert.Message)

	summary := b.String()
	if len(summary) > 150 {
		summary = summary[:147] + "..."
	}
	return summary, nil
}

// aiSummarizer condenses alert messages with an OpenAI chat model
type aiSummarizer struct {
	client *openai.Client
	model  string
}

// NewAISummarizer creates an OpenAI-backed Summarizer
func NewAISummarizer(apiKey, model string) Summarizer {
	if apiKey == "" {
		return &aiSummarizer{client: nil, model: model} // Will cause errors - for testing
	}
	return &aiSummarizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Condense asks the model for a single operator-friendly line
func (a *aiSummarizer) Condense(ctx context.Context, alert Alert) (string, error) {
	if a.client == nil {
		return "", errors.New("OpenAI client not initialized - invalid API key")
	}

	systemPrompt := `You are a port operations analyst. Rewrite vessel alert messages as a single clear line for duty officers, under 150 characters, no jargon. Format: "Port - Vessel: what is happening (key figure)". Return the line only, no quotes.`

	userPrompt := fmt.Sprintf("Port: %s\nVessel: %s\nAlert type: %s\nSeverity: %s\nMessage: %s",
		alert.PortCode, alert.VesselName, alert.Type, alert.Severity, alert.Message)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.3,
		MaxTokens:   100,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI API")
	}

	summary := strings.TrimSpace(resp.Choices[0].Message.Content)
	if summary == "" {
		return "", errors.New("empty summary from OpenAI API")
	}
	if len(summary) > 150 {
		summary = summary[:147] + "..."
	}
	return summary, nil
}

// SummaryCache is the caching interface the cached summarizer needs,
// implemented by the main cache.
type SummaryCache interface {
	SetSummary(contentHash string, summary interface{}, ttl time.Duration) error
	GetSummary(contentHash string, result interface{}) (bool, error)
}

// CachedSummarizer wraps a Summarizer with content-based caching and a
// template fallback: enhancement failures degrade, they never block an
// alert from going out.
type CachedSummarizer struct {
	inner    Summarizer
	fallback TemplateSummarizer
	cache    SummaryCache
	hasher   *ContentHasher
	ttl      time.Duration
}

// NewCachedSummarizer creates a summarizer with content-based caching
func NewCachedSummarizer(inner Summarizer, cache SummaryCache, ttl time.Duration) *CachedSummarizer {
	return &CachedSummarizer{
		inner:  inner,
		cache:  cache,
		hasher: NewContentHasher(),
		ttl:    ttl,
	}
}

// Condense returns the cached summary when the same condition has been
// enhanced before, otherwise enhances and caches. Any failure falls back to
// the template summary.
func (c *CachedSummarizer) Condense(ctx context.Context, alert Alert) (string, error) {
	contentHash := c.hasher.HashAlert(alert)

	var cached string
	if found, err := c.cache.GetSummary(contentHash, &cached); err == nil && found && cached != "" {
		return cached, nil
	}

	summary, err := c.inner.Condense(ctx, alert)
	if err != nil {
		log.Printf("Summary enhancement failed for %s: %v", contentHash[:8], err)
		return c.fallback.Condense(ctx, alert)
	}

	if err := c.cache.SetSummary(contentHash, summary, c.ttl); err != nil {
		log.Printf("Failed to cache alert summary: %v", err)
	}
	return summary, nil
}
