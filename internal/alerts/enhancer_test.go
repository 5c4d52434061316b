package alerts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateSummarizer(t *testing.T) {
	alert := Alert{
		PortCode:   "SGSIN",
		Type:       TypeETAImminent,
		Severity:   SeverityCritical,
		VesselName: "Aurora",
		Message:    "Aurora is 10.0 nm out at 8.0 kn, ETA 1.3 hours",
	}

	summary, err := TemplateSummarizer{}.Condense(context.Background(), alert)
	require.NoError(t, err)
	assert.Contains(t, summary, "SGSIN")
	assert.Contains(t, summary, "CRITICAL")
	assert.Contains(t, summary, "Aurora")
	assert.LessOrEqual(t, len(summary), 150)
}

func TestTemplateSummarizerTruncates(t *testing.T) {
	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	alert := Alert{PortCode: "SGSIN", Type: TypeHighCongestion, Severity: SeverityWarning, Message: string(long)}

	summary, err := TemplateSummarizer{}.Condense(context.Background(), alert)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(summary), 150)
}

type stubSummarizer struct {
	result string
	err    error
	calls  int
}

func (s *stubSummarizer) Condense(ctx context.Context, alert Alert) (string, error) {
	s.calls++
	return s.result, s.err
}

type mapSummaryCache struct {
	entries map[string]string
}

func (c *mapSummaryCache) GetSummary(contentHash string, result interface{}) (bool, error) {
	v, ok := c.entries[contentHash]
	if !ok {
		return false, nil
	}
	*(result.(*string)) = v
	return true, nil
}

func (c *mapSummaryCache) SetSummary(contentHash string, summary interface{}, ttl time.Duration) error {
	c.entries[contentHash] = summary.(string)
	return nil
}

func TestCachedSummarizerCachesByContent(t *testing.T) {
	inner := &stubSummarizer{result: "condensed"}
	cache := &mapSummaryCache{entries: map[string]string{}}
	summarizer := NewCachedSummarizer(inner, cache, time.Hour)

	alert := Alert{PortCode: "SGSIN", Type: TypeHighCongestion, Severity: SeverityWarning, Message: "Congestion is high, estimated wait 12.0 hours"}

	first, err := summarizer.Condense(context.Background(), alert)
	require.NoError(t, err)
	second, err := summarizer.Condense(context.Background(), alert)
	require.NoError(t, err)

	assert.Equal(t, "condensed", first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSummarizerFallsBackOnFailure(t *testing.T) {
	inner := &stubSummarizer{err: errors.New("api unavailable")}
	cache := &mapSummaryCache{entries: map[string]string{}}
	summarizer := NewCachedSummarizer(inner, cache, time.Hour)

	alert := Alert{PortCode: "SGSIN", Type: TypeHighCongestion, Severity: SeverityWarning, Message: "Congestion is high"}

	summary, err := summarizer.Condense(context.Background(), alert)
	require.NoError(t, err)
	assert.Contains(t, summary, "SGSIN")
}

func TestContentHashStableAcrossVolatileFigures(t *testing.T) {
	hasher := NewContentHasher()
	a := Alert{PortCode: "SGSIN", Type: TypeHighCongestion, Message: "estimated wait 12.0 hours"}
	b := Alert{PortCode: "SGSIN", Type: TypeHighCongestion, Message: "estimated wait 14.5 hours"}
	c := Alert{PortCode: "NLRTM", Type: TypeHighCongestion, Message: "estimated wait 12.0 hours"}

	assert.Equal(t, hasher.HashAlert(a), hasher.HashAlert(b))
	assert.NotEqual(t, hasher.HashAlert(a), hasher.HashAlert(c))
}
