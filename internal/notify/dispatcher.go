package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/quayside/portpulse/server/internal/alerts"
	"github.com/quayside/portpulse/server/internal/config"
)

// Dispatcher fans an alert out to every configured channel. Delivery is
// fire-and-forget with a hard timeout: a dead channel slows nothing down
// and a failed send is logged, never surfaced to the evaluation pass.
type Dispatcher struct {
	channels []Channel
	limiters map[string]*rate.Limiter
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the given channels with a
// per-channel rate limit.
func NewDispatcher(cfg config.NotifyConfig, channels []Channel) *Dispatcher {
	limit := rate.Limit(float64(cfg.RequestsPerMinute) / 60.0)
	limiters := make(map[string]*rate.Limiter, len(channels))
	for _, channel := range channels {
		limiters[channel.Name()] = rate.NewLimiter(limit, cfg.Burst)
	}
	return &Dispatcher{
		channels: channels,
		limiters: limiters,
		timeout:  cfg.DeliveryTimeout,
	}
}

// ChannelsFromConfig builds the channel set the config enables
func ChannelsFromConfig(cfg config.NotifyConfig) []Channel {
	var channels []Channel
	if cfg.Chat.Enabled && cfg.Chat.WebhookURL != "" {
		channels = append(channels, NewChatChannel(cfg.Chat.WebhookURL, cfg.DeliveryTimeout))
	}
	for _, target := range cfg.Webhooks {
		channels = append(channels, NewWebhookChannel(target.Name, target.URL, cfg.DeliveryTimeout))
	}
	return channels
}

// Dispatch sends the alert to every channel in the background. The caller's
// context is not used for delivery so that request-scoped cancellation
// doesn't kill in-flight notifications.
func (d *Dispatcher) Dispatch(_ context.Context, alert alerts.Alert, summary string) {
	for _, channel := range d.channels {
		d.wg.Add(1)
		go func(channel Channel) {
			defer d.wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
			defer cancel()

			limiter := d.limiters[channel.Name()]
			if limiter != nil && !limiter.Allow() {
				log.Printf("Notification to %s dropped for alert %s: rate limit exceeded", channel.Name(), alert.ID)
				return
			}

			if err := channel.Send(ctx, alert, summary); err != nil {
				log.Printf("Notification to %s failed for alert %s: %v", channel.Name(), alert.ID, err)
				return
			}
			log.Printf("Notified %s of %s alert %s at %s", channel.Name(), alert.Severity, alert.ID, alert.PortCode)
		}(channel)
	}
}

// Wait blocks until all in-flight deliveries finish. Intended for shutdown
// and tests.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
