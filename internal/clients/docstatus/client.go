// Package docstatus is the client for the document-readiness collaborator.
// It answers two questions per vessel and port: is any mandatory document
// overdue, and has a dangerous-goods declaration been submitted.
package docstatus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/marine"
)

// Client provides access to the document readiness API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new document readiness client
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

type signalsResponse struct {
	AnyOverdue              bool `json:"any_overdue"`
	DangerousGoodsSubmitted bool `json:"dangerous_goods_submitted"`
}

// Signals retrieves document readiness for one vessel at one port
func (c *Client) Signals(ctx context.Context, vesselID, portCode string) (marine.DocumentSignals, error) {
	params := url.Values{}
	params.Set("vessel_id", vesselID)
	params.Set("port_code", portCode)

	requestURL := fmt.Sprintf("%s/signals?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return marine.DocumentSignals{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return marine.DocumentSignals{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return marine.DocumentSignals{}, fmt.Errorf("document service error %d: %s", resp.StatusCode, string(body))
	}

	var response signalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return marine.DocumentSignals{}, fmt.Errorf("failed to decode signals response: %w", err)
	}

	return marine.DocumentSignals{
		AnyOverdue:              response.AnyOverdue,
		DangerousGoodsSubmitted: response.DangerousGoodsSubmitted,
	}, nil
}
