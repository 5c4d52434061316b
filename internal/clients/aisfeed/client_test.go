package aisfeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/marine"
)

// Known encoding of three points; contains a backtick so it cannot live in
// the raw literal below.
const sampleTrack = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"

const feedFixtureTemplate = `{
  "positions": [
    {
      "mmsi": "563012345",
      "name": "MSC AURELIA",
      "lat": 1.2100,
      "lon": 103.8000,
      "sog": 0.4,
      "nav_status": 1,
      "timestamp": "2026-03-01T11:45:00Z"
    },
    {
      "mmsi": "477098765",
      "name": "EVER BRIGHT",
      "lat": 1.0500,
      "lon": 103.6000,
      "sog": 14.2,
      "hdg": 42.5,
      "track": "%s",
      "timestamp": "2026-03-01T11:50:00Z"
    },
    {
      "mmsi": "999000111",
      "name": "BAD CLOCK",
      "lat": 1.3,
      "lon": 103.9,
      "sog": 5,
      "timestamp": "not-a-timestamp"
    },
    {
      "mmsi": "999000222",
      "name": "BAD POSITION",
      "lat": 95.0,
      "lon": 103.9,
      "sog": 5,
      "timestamp": "2026-03-01T11:55:00Z"
    }
  ]
}`

func newTestClient(serverURL string) *Client {
	return NewClient(config.PositionFeedConfig{
		URL:     serverURL,
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	})
}

func TestRecentPositions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		fmt.Fprintf(w, feedFixtureTemplate, sampleTrack)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	fixes, err := client.RecentPositions(context.Background(), time.Now().Add(-6*time.Hour))
	require.NoError(t, err)

	// The two malformed records are skipped, not fatal
	require.Len(t, fixes, 2)

	anchored := fixes[0]
	assert.Equal(t, "563012345", anchored.VesselID)
	assert.Equal(t, "MSC AURELIA", anchored.VesselName)
	require.NotNil(t, anchored.NavStatus)
	assert.True(t, anchored.NavStatus.Stationary())
	assert.Nil(t, anchored.HeadingDegrees)

	underway := fixes[1]
	assert.Equal(t, "EVER BRIGHT", underway.VesselName)
	require.NotNil(t, underway.HeadingDegrees)
	assert.Equal(t, 42.5, *underway.HeadingDegrees)
	assert.Len(t, underway.Track, 3, "encoded track should decode to points")
}

func TestRecentPositions_ErrorStatuses(t *testing.T) {
	tests := []struct {
		status  int
		message string
	}{
		{429, "rate limit"},
		{401, "API key"},
		{500, "error 500"},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := newTestClient(server.URL)
		_, err := client.RecentPositions(context.Background(), time.Now())
		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.message)
		server.Close()
	}
}

func TestDedupeLatest(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fixes := []marine.PositionFix{
		{VesselID: "A", ObservedAt: now},
		{VesselID: "B", ObservedAt: now.Add(-time.Hour)},
		{VesselID: "A", ObservedAt: now.Add(-2 * time.Hour)}, // older duplicate
		{VesselID: "C", ObservedAt: now.Add(-8 * time.Hour)}, // outside window
		{VesselID: "", ObservedAt: now},                      // no identifier
	}

	latest := marine.DedupeLatest(fixes, now.Add(-6*time.Hour))
	require.Len(t, latest, 2)
	assert.Equal(t, "A", latest[0].VesselID)
	assert.Equal(t, now, latest[0].ObservedAt)
	assert.Equal(t, "B", latest[1].VesselID)
}
