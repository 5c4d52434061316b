package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/quayside/portpulse/server/internal/cache"
	"github.com/quayside/portpulse/server/internal/clients/portdir"
	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/prearrival"
	"github.com/quayside/portpulse/server/internal/marine"
)

// PreArrivalService computes pre-arrival forecasts with the same
// read-through caching and stale fallback as the congestion service.
type PreArrivalService struct {
	cfg       config.PreArrivalConfig
	feed      PositionFeed
	ports     PortDirectory
	predictor prearrival.Predictor
	cache     *cache.Cache
	now       func() time.Time
}

// NewPreArrivalService creates the pre-arrival forecast service
func NewPreArrivalService(cfg config.PreArrivalConfig, feed PositionFeed, ports PortDirectory, predictor prearrival.Predictor, forecastCache *cache.Cache) *PreArrivalService {
	return &PreArrivalService{
		cfg:       cfg,
		feed:      feed,
		ports:     ports,
		predictor: predictor,
		cache:     forecastCache,
		now:       time.Now,
	}
}

// WithClock overrides the service clock for tests
func (s *PreArrivalService) WithClock(now func() time.Time) *PreArrivalService {
	s.now = now
	return s
}

func forecastCacheKey(portCode string, window time.Duration) string {
	return fmt.Sprintf("prearrival:%s:%s", portCode, window)
}

// Forecast returns the pre-arrival forecast for a port. A zero window means
// the configured default.
func (s *PreArrivalService) Forecast(ctx context.Context, portCode string, window time.Duration) (prearrival.Forecast, error) {
	if window <= 0 {
		window = s.cfg.DefaultETAWindow
	}
	key := forecastCacheKey(portCode, window)

	var cached prearrival.Forecast
	if found, err := s.cache.Get(key, &cached); err == nil && found {
		return cached, nil
	}

	port, err := s.ports.Port(ctx, portCode)
	if err != nil {
		if errors.Is(err, portdir.ErrNotFound) {
			return prearrival.Forecast{}, fmt.Errorf("%w: unknown port %s", ErrPortUnavailable, portCode)
		}
		return prearrival.Forecast{}, fmt.Errorf("failed to resolve port %s: %w", portCode, err)
	}
	if port.Position == nil {
		return prearrival.Forecast{}, fmt.Errorf("%w: port %s has no published coordinates", ErrPortUnavailable, portCode)
	}

	now := s.now()
	since := now.Add(-s.cfg.DataWindow)
	fixes, err := s.feed.RecentPositions(ctx, since)
	if err != nil {
		if stale, ok := s.staleForecast(key); ok {
			log.Printf("Position feed failed for %s, serving stale forecast: %v", portCode, err)
			return stale, nil
		}
		return prearrival.Forecast{}, fmt.Errorf("position feed failed for %s: %w", portCode, err)
	}

	fixes = marine.DedupeLatest(fixes, since)

	forecast, err := s.predictor.Forecast(port, fixes, window, now)
	if err != nil {
		return prearrival.Forecast{}, fmt.Errorf("failed to forecast arrivals for %s: %w", portCode, err)
	}

	if err := s.cache.Set(key, forecast, s.cfg.SnapshotTTL, "computed"); err != nil {
		log.Printf("Failed to cache pre-arrival forecast for %s: %v", portCode, err)
	}

	return forecast, nil
}

func (s *PreArrivalService) staleForecast(key string) (prearrival.Forecast, bool) {
	if s.cache.IsVeryStale(key) {
		return prearrival.Forecast{}, false
	}
	var forecast prearrival.Forecast
	_, found, err := s.cache.GetWithMetadata(key, &forecast)
	if err != nil || !found {
		return prearrival.Forecast{}, false
	}
	return forecast, true
}
