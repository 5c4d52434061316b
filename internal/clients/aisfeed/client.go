// Package aisfeed is the client for the external vessel position store.
// It returns the most recent AIS-style fixes observed within a time window,
// most-recent-first. The core holds no long-lived ownership of fixes.
package aisfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/geo"
	"github.com/quayside/portpulse/server/internal/marine"
)

// Client provides access to the AIS position feed API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	geo        geo.GeoUtils
}

// NewClient creates a new position feed client
func NewClient(cfg config.PositionFeedConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		geo: geo.NewGeoUtils(),
	}
}

// positionResponse is the wire format of the feed
type positionResponse struct {
	Positions []positionRecord `json:"positions"`
}

type positionRecord struct {
	MMSI       string   `json:"mmsi"`
	Name       string   `json:"name"`
	Latitude   float64  `json:"lat"`
	Longitude  float64  `json:"lon"`
	SpeedKnots float64  `json:"sog"`
	HeadingDeg *float64 `json:"hdg,omitempty"`
	NavStatus  *int     `json:"nav_status,omitempty"`
	Track      string   `json:"track,omitempty"`
	Timestamp  string   `json:"timestamp"`
}

// RecentPositions retrieves the most recent fix per vessel observed since
// the given time, most-recent-first. Records with unparsable timestamps or
// coordinates are skipped with a logged warning rather than failing the
// whole read.
func (c *Client) RecentPositions(ctx context.Context, since time.Time) ([]marine.PositionFix, error) {
	params := url.Values{}
	params.Set("since", since.UTC().Format(time.RFC3339))

	requestURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return nil, fmt.Errorf("position feed rate limit exceeded")
	}
	if resp.StatusCode == 401 {
		return nil, fmt.Errorf("invalid position feed API key")
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("position feed error %d: %s", resp.StatusCode, string(body))
	}

	var response positionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode position response: %w", err)
	}

	return c.processPositions(response.Positions), nil
}

// processPositions converts wire records into domain fixes
func (c *Client) processPositions(records []positionRecord) []marine.PositionFix {
	fixes := make([]marine.PositionFix, 0, len(records))

	for _, rec := range records {
		observedAt, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			log.Printf("Skipping fix for %s: bad timestamp %q: %v", rec.MMSI, rec.Timestamp, err)
			continue
		}

		position, err := geo.NewPoint(rec.Latitude, rec.Longitude)
		if err != nil {
			log.Printf("Skipping fix for %s: %v", rec.MMSI, err)
			continue
		}

		fix := marine.PositionFix{
			VesselID:       rec.MMSI,
			VesselName:     rec.Name,
			Position:       position,
			SpeedKnots:     rec.SpeedKnots,
			HeadingDegrees: rec.HeadingDeg,
			ObservedAt:     observedAt,
		}

		if rec.NavStatus != nil {
			status := marine.NavStatus(*rec.NavStatus)
			fix.NavStatus = &status
		}

		// Recent track arrives as an encoded polyline; a bad track is
		// dropped but the fix itself survives
		if rec.Track != "" {
			points, err := c.geo.DecodePolyline(rec.Track)
			if err != nil {
				log.Printf("Dropping track for %s: %v", rec.MMSI, err)
			} else {
				fix.Track = points
			}
		}

		fixes = append(fixes, fix)
	}

	return fixes
}
