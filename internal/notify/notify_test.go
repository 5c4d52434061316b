package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/portpulse/server/internal/alerts"
	"github.com/quayside/portpulse/server/internal/config"
)

func testAlert() alerts.Alert {
	return alerts.Alert{
		ID:         "a-1",
		Timestamp:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		PortCode:   "SGSIN",
		Type:       alerts.TypeHighCongestion,
		Severity:   alerts.SeverityCritical,
		VesselName: "Aurora",
		Message:    "Congestion at Singapore is critical",
	}
}

func TestChatChannelSend(t *testing.T) {
	var received chatMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel := NewChatChannel(server.URL, 5*time.Second)
	err := channel.Send(context.Background(), testAlert(), "SGSIN | CRITICAL HIGH_CONGESTION")
	require.NoError(t, err)

	assert.Equal(t, "SGSIN | CRITICAL HIGH_CONGESTION", received.Text)
	require.Len(t, received.Attachments, 1)
	assert.Equal(t, "#dc3545", received.Attachments[0].Color)
	assert.Contains(t, received.Attachments[0].Title, "SGSIN")

	var vesselField bool
	for _, field := range received.Attachments[0].Fields {
		if field.Title == "Vessel" && field.Value == "Aurora" {
			vesselField = true
		}
	}
	assert.True(t, vesselField)
}

func TestChatChannelErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	defer server.Close()

	channel := NewChatChannel(server.URL, 5*time.Second)
	err := channel.Send(context.Background(), testAlert(), "summary")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestWebhookChannelSend(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	channel := NewWebhookChannel("ops", server.URL, 5*time.Second)
	err := channel.Send(context.Background(), testAlert(), "condensed")
	require.NoError(t, err)

	assert.Equal(t, "ops", channel.Name())
	assert.Equal(t, "a-1", received.ID)
	assert.Equal(t, "HIGH_CONGESTION", received.Type)
	assert.Equal(t, "condensed", received.Summary)
}

func TestWebhookChannelSingleAttempt(t *testing.T) {
	// The endpoint kills every connection mid-request. Delivery must be one
	// bounded attempt per alert, so exactly one request may arrive.
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	channel := NewWebhookChannel("ops", server.URL, 5*time.Second)
	err := channel.Send(context.Background(), testAlert(), "summary")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestChatChannelSingleAttempt(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		conn.Close()
	}))
	defer server.Close()

	channel := NewChatChannel(server.URL, 5*time.Second)
	err := channel.Send(context.Background(), testAlert(), "summary")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

type countingChannel struct {
	name string
	mu   sync.Mutex
	sent int
	err  error
}

func (c *countingChannel) Name() string { return c.name }

func (c *countingChannel) Send(ctx context.Context, alert alerts.Alert, summary string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent++
	return c.err
}

func (c *countingChannel) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sent
}

func TestDispatcherFansOut(t *testing.T) {
	first := &countingChannel{name: "first"}
	second := &countingChannel{name: "second"}
	dispatcher := NewDispatcher(config.DefaultConfig().Notify, []Channel{first, second})

	dispatcher.Dispatch(context.Background(), testAlert(), "summary")
	dispatcher.Wait()

	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}

func TestDispatcherIsolatesFailures(t *testing.T) {
	failing := &countingChannel{name: "failing", err: errors.New("unreachable")}
	healthy := &countingChannel{name: "healthy"}
	dispatcher := NewDispatcher(config.DefaultConfig().Notify, []Channel{failing, healthy})

	dispatcher.Dispatch(context.Background(), testAlert(), "summary")
	dispatcher.Wait()

	assert.Equal(t, 1, healthy.count())
}

func TestDispatcherRateLimit(t *testing.T) {
	cfg := config.DefaultConfig().Notify
	cfg.RequestsPerMinute = 60
	cfg.Burst = 2

	channel := &countingChannel{name: "limited"}
	dispatcher := NewDispatcher(cfg, []Channel{channel})

	for i := 0; i < 5; i++ {
		dispatcher.Dispatch(context.Background(), testAlert(), "summary")
	}
	dispatcher.Wait()

	// Burst of 2 plus at most one refill while the test runs
	assert.LessOrEqual(t, channel.count(), 3)
	assert.GreaterOrEqual(t, channel.count(), 2)
}

func TestChannelsFromConfig(t *testing.T) {
	cfg := config.NotifyConfig{
		Chat: config.ChatChannel{Enabled: true, WebhookURL: "https://hooks.example.com/x"},
		Webhooks: []config.WebhookTarget{
			{Name: "ops", URL: "https://ops.example.com/alerts"},
		},
	}

	channels := ChannelsFromConfig(cfg)
	require.Len(t, channels, 2)
	assert.Equal(t, "chat", channels[0].Name())
	assert.Equal(t, "ops", channels[1].Name())

	assert.Empty(t, ChannelsFromConfig(config.NotifyConfig{}))
}
