package alerts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAlert(id, portCode string, ts time.Time) Alert {
	return Alert{
		ID:        id,
		Timestamp: ts,
		PortCode:  portCode,
		Type:      TypeHighCongestion,
		Severity:  SeverityWarning,
		Message:   "Congestion at " + portCode + " is high",
	}
}

func TestMemoryStoreHistoryNewestFirst(t *testing.T) {
	store := NewMemoryStore(500)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("a-%d", i)
		require.NoError(t, store.Append(ctx, sampleAlert(id, "SGSIN", base.Add(time.Duration(i)*time.Minute))))
	}

	history, err := store.History(ctx, "SGSIN", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "a-2", history[0].ID)
	assert.Equal(t, "a-0", history[2].ID)
}

func TestMemoryStoreHistoryLimit(t *testing.T) {
	store := NewMemoryStore(500)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, sampleAlert(fmt.Sprintf("a-%d", i), "SGSIN", base)))
	}

	history, err := store.History(ctx, "SGSIN", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestMemoryStoreCapDropsOldest(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Append(ctx, sampleAlert(fmt.Sprintf("a-%d", i), "SGSIN", base.Add(time.Duration(i)*time.Second))))
	}

	history, err := store.History(ctx, "SGSIN", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "a-4", history[0].ID)
	assert.Equal(t, "a-2", history[2].ID)
}

func TestMemoryStoreAcknowledge(t *testing.T) {
	store := NewMemoryStore(500)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleAlert("a-1", "SGSIN", time.Now())))

	found, err := store.Acknowledge(ctx, "SGSIN", "a-1")
	require.NoError(t, err)
	assert.True(t, found)

	// Idempotent
	found, err = store.Acknowledge(ctx, "SGSIN", "a-1")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.Acknowledge(ctx, "SGSIN", "missing")
	require.NoError(t, err)
	assert.False(t, found)

	history, err := store.History(ctx, "SGSIN", 0)
	require.NoError(t, err)
	assert.True(t, history[0].Acknowledged)
}

func TestMemoryStorePortsIsolated(t *testing.T) {
	store := NewMemoryStore(500)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, sampleAlert("a-1", "SGSIN", time.Now())))
	require.NoError(t, store.Append(ctx, sampleAlert("a-2", "NLRTM", time.Now())))

	history, err := store.History(ctx, "SGSIN", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a-1", history[0].ID)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewFileStore(dir, 500, t.Logf)
	require.NoError(t, err)

	alert := sampleAlert("a-1", "SGSIN", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, store.Append(ctx, alert))

	found, err := store.Acknowledge(ctx, "SGSIN", "a-1")
	require.NoError(t, err)
	assert.True(t, found)

	// A fresh store reads the journal back, including the ack
	reloaded, err := NewFileStore(dir, 500, t.Logf)
	require.NoError(t, err)

	history, err := reloaded.History(ctx, "SGSIN", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a-1", history[0].ID)
	assert.True(t, history[0].Acknowledged)
}

func TestFileStoreSkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	good := `{"id":"a-1","timestamp":"2026-03-01T12:00:00Z","port_code":"SGSIN","type":"HIGH_CONGESTION","severity":"WARNING","message":"high"}`
	content := "not json at all\n" + good + "\n{\"truncated\":\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SGSIN.jsonl"), []byte(content), 0o644))

	store, err := NewFileStore(dir, 500, t.Logf)
	require.NoError(t, err)

	history, err := store.History(ctx, "SGSIN", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a-1", history[0].ID)
}
