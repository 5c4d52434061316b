// Package portdir is the client for the external port directory, which owns
// port records keyed by UN/LOCODE-style codes.
package portdir

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/geo"
	"github.com/quayside/portpulse/server/internal/marine"
)

// ErrNotFound is returned when the directory has no entry for a code
var ErrNotFound = errors.New("port not found")

// Client provides access to the port directory API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new port directory client
func NewClient(cfg config.ServiceConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// portRecord is the wire format of a directory entry. Latitude/longitude
// are pointers: the directory legitimately knows some ports by name only.
type portRecord struct {
	Code      string   `json:"code"`
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lon,omitempty"`
}

// Port retrieves a single port by code. A missing port yields ErrNotFound;
// a port without coordinates is returned with a nil Position and it is the
// caller's job to treat it as unavailable for evaluation.
func (c *Client) Port(ctx context.Context, code string) (marine.Port, error) {
	requestURL := fmt.Sprintf("%s/ports/%s", c.baseURL, code)

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return marine.Port{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return marine.Port{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return marine.Port{}, fmt.Errorf("port %s: %w", code, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return marine.Port{}, fmt.Errorf("port directory error %d: %s", resp.StatusCode, string(body))
	}

	var record portRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return marine.Port{}, fmt.Errorf("failed to decode port response: %w", err)
	}

	port := marine.Port{
		Code:    record.Code,
		Name:    record.Name,
		Country: record.Country,
	}
	if record.Latitude != nil && record.Longitude != nil {
		position, err := geo.NewPoint(*record.Latitude, *record.Longitude)
		if err != nil {
			return marine.Port{}, fmt.Errorf("port %s has invalid coordinates: %w", code, err)
		}
		port.Position = &position
	}

	return port, nil
}
