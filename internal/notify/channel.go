package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/quayside/portpulse/server/internal/alerts"
)

// Channel is one outbound notification target. Send must respect the
// context deadline; the dispatcher enforces the overall delivery timeout.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert alerts.Alert, summary string) error
}

// chatMessage is the incoming-webhook payload shape used by Slack and
// compatible chat services.
type chatMessage struct {
	Text        string           `json:"text"`
	Username    string           `json:"username,omitempty"`
	IconEmoji   string           `json:"icon_emoji,omitempty"`
	Attachments []chatAttachment `json:"attachments,omitempty"`
}

type chatAttachment struct {
	Color  string      `json:"color"`
	Title  string      `json:"title"`
	Text   string      `json:"text"`
	Fields []chatField `json:"fields,omitempty"`
	Footer string      `json:"footer,omitempty"`
	Ts     int64       `json:"ts,omitempty"`
}

type chatField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// ChatChannel posts alerts to a chat incoming webhook
type ChatChannel struct {
	webhookURL string
	client     *resty.Client
}

// NewChatChannel creates a chat webhook channel. The timeout is the
// per-delivery bound; the dispatcher's context carries the same limit.
func NewChatChannel(webhookURL string, timeout time.Duration) *ChatChannel {
	return &ChatChannel{
		webhookURL: webhookURL,
		client:     resty.New().SetTimeout(timeout),
	}
}

func (c *ChatChannel) Name() string { return "chat" }

// Send posts the alert as a colored attachment
func (c *ChatChannel) Send(ctx context.Context, alert alerts.Alert, summary string) error {
	message := chatMessage{
		Text:      summary,
		Username:  "PortPulse",
		IconEmoji: ":anchor:",
		Attachments: []chatAttachment{
			{
				Color: severityColor(alert.Severity),
				Title: fmt.Sprintf("%s at %s", alert.Type, alert.PortCode),
				Text:  alert.Message,
				Fields: []chatField{
					{Title: "Severity", Value: string(alert.Severity), Short: true},
					{Title: "Port", Value: alert.PortCode, Short: true},
				},
				Footer: "portpulse",
				Ts:     alert.Timestamp.Unix(),
			},
		},
	}
	if alert.VesselName != "" {
		message.Attachments[0].Fields = append(message.Attachments[0].Fields,
			chatField{Title: "Vessel", Value: alert.VesselName, Short: true})
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(c.webhookURL)
	if err != nil {
		return fmt.Errorf("chat webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("chat webhook returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

func severityColor(severity alerts.Severity) string {
	switch severity {
	case alerts.SeverityCritical:
		return "#dc3545"
	case alerts.SeverityWarning:
		return "#ffc107"
	default:
		return "#17a2b8"
	}
}

// webhookPayload is the JSON body posted to generic webhook targets
type webhookPayload struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	PortCode   string    `json:"port_code"`
	Type       string    `json:"type"`
	Severity   string    `json:"severity"`
	VesselID   string    `json:"vessel_id,omitempty"`
	VesselName string    `json:"vessel_name,omitempty"`
	Message    string    `json:"message"`
	Summary    string    `json:"summary"`
}

// WebhookChannel posts alerts as plain JSON to an arbitrary HTTP endpoint
type WebhookChannel struct {
	name   string
	url    string
	client *resty.Client
}

// NewWebhookChannel creates a generic JSON webhook channel. Delivery is a
// single attempt: a failed send is logged by the dispatcher and the next
// sweep re-fires the condition if it still holds.
func NewWebhookChannel(name, url string, timeout time.Duration) *WebhookChannel {
	return &WebhookChannel{
		name:   name,
		url:    url,
		client: resty.New().SetTimeout(timeout),
	}
}

func (w *WebhookChannel) Name() string { return w.name }

// Send posts the alert payload
func (w *WebhookChannel) Send(ctx context.Context, alert alerts.Alert, summary string) error {
	payload := webhookPayload{
		ID:         alert.ID,
		Timestamp:  alert.Timestamp,
		PortCode:   alert.PortCode,
		Type:       string(alert.Type),
		Severity:   string(alert.Severity),
		VesselID:   alert.VesselID,
		VesselName: alert.VesselName,
		Message:    alert.Message,
		Summary:    summary,
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook %s request failed: %w", w.name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook %s returned status %d", w.name, resp.StatusCode())
	}
	return nil
}
