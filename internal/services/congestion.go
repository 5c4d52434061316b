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
	"github.com/quayside/portpulse/server/internal/lib/congestion"
	"github.com/quayside/portpulse/server/internal/marine"
)

// ErrPortUnavailable marks a port that cannot be evaluated at all: unknown
// code or no published coordinates. Distinct from an empty snapshot, which
// is a valid answer.
var ErrPortUnavailable = errors.New("port unavailable for evaluation")

// PositionFeed supplies recent vessel position fixes
type PositionFeed interface {
	RecentPositions(ctx context.Context, since time.Time) ([]marine.PositionFix, error)
}

// PortDirectory resolves port codes to port records
type PortDirectory interface {
	Port(ctx context.Context, code string) (marine.Port, error)
}

// CongestionService computes port congestion snapshots with read-through
// caching. Snapshots are cached per port; when the position feed is down, a
// stale snapshot is served rather than nothing, up to twice the TTL.
type CongestionService struct {
	cfg        config.CongestionConfig
	feed       PositionFeed
	ports      PortDirectory
	classifier congestion.Classifier
	cache      *cache.Cache
	now        func() time.Time
}

// NewCongestionService creates the congestion snapshot service
func NewCongestionService(cfg config.CongestionConfig, feed PositionFeed, ports PortDirectory, classifier congestion.Classifier, snapshotCache *cache.Cache) *CongestionService {
	return &CongestionService{
		cfg:        cfg,
		feed:       feed,
		ports:      ports,
		classifier: classifier,
		cache:      snapshotCache,
		now:        time.Now,
	}
}

// WithClock overrides the service clock for tests
func (s *CongestionService) WithClock(now func() time.Time) *CongestionService {
	s.now = now
	return s
}

func congestionCacheKey(portCode string) string {
	return "congestion:" + portCode
}

// Snapshot returns the current congestion snapshot for a port, from cache
// when fresh, recomputed otherwise.
func (s *CongestionService) Snapshot(ctx context.Context, portCode string) (congestion.Snapshot, error) {
	key := congestionCacheKey(portCode)

	var cached congestion.Snapshot
	if found, err := s.cache.Get(key, &cached); err == nil && found {
		return cached, nil
	}

	port, err := s.ports.Port(ctx, portCode)
	if err != nil {
		if errors.Is(err, portdir.ErrNotFound) {
			return congestion.Snapshot{}, fmt.Errorf("%w: unknown port %s", ErrPortUnavailable, portCode)
		}
		return congestion.Snapshot{}, fmt.Errorf("failed to resolve port %s: %w", portCode, err)
	}
	if port.Position == nil {
		return congestion.Snapshot{}, fmt.Errorf("%w: port %s has no published coordinates", ErrPortUnavailable, portCode)
	}

	now := s.now()
	since := now.Add(-s.cfg.DataWindow)
	fixes, err := s.feed.RecentPositions(ctx, since)
	if err != nil {
		if stale, ok := s.staleSnapshot(key); ok {
			log.Printf("Position feed failed for %s, serving stale snapshot: %v", portCode, err)
			return stale, nil
		}
		return congestion.Snapshot{}, fmt.Errorf("position feed failed for %s: %w", portCode, err)
	}

	fixes = marine.DedupeLatest(fixes, since)

	snapshot, err := s.classifier.Snapshot(port, fixes, now)
	if err != nil {
		return congestion.Snapshot{}, fmt.Errorf("failed to classify congestion for %s: %w", portCode, err)
	}

	if err := s.cache.Set(key, snapshot, s.cfg.SnapshotTTL, "computed"); err != nil {
		log.Printf("Failed to cache congestion snapshot for %s: %v", portCode, err)
	}

	// High and critical snapshots get a durable log line for after-the-fact
	// operational review
	if snapshot.Level == congestion.LevelHigh || snapshot.Level == congestion.LevelCritical {
		log.Printf("ELEVATED CONGESTION port=%s level=%s score=%d anchorage=%d approach=%d wait=%.1fh",
			snapshot.PortCode, snapshot.Level, snapshot.Score,
			snapshot.Counts.Anchorage, snapshot.Counts.Approach, snapshot.EstimatedWaitHours)
	}

	return snapshot, nil
}

// staleSnapshot returns the cached snapshot past its TTL, unless it has
// aged past twice the TTL, after which stale data is worse than an error.
func (s *CongestionService) staleSnapshot(key string) (congestion.Snapshot, bool) {
	if s.cache.IsVeryStale(key) {
		return congestion.Snapshot{}, false
	}
	var snapshot congestion.Snapshot
	_, found, err := s.cache.GetWithMetadata(key, &snapshot)
	if err != nil || !found {
		return congestion.Snapshot{}, false
	}
	return snapshot, true
}
