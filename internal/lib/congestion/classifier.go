package congestion

import (
	"errors"
	"sort"
	"time"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/geo"
	"github.com/quayside/portpulse/server/internal/marine"
)

// ErrNoCoordinates is returned when a port has no position and therefore
// cannot be evaluated. Callers must surface this as "unavailable", never as
// an empty snapshot.
var ErrNoCoordinates = errors.New("port has no coordinates")

// classifier implements the Classifier interface
type classifier struct {
	cfg config.CongestionConfig
	geo geo.GeoUtils
}

// NewClassifier creates a Classifier with the given thresholds
func NewClassifier(cfg config.CongestionConfig, geoUtils geo.GeoUtils) Classifier {
	return &classifier{cfg: cfg, geo: geoUtils}
}

// Snapshot classifies every fix within the scan radius into exactly one
// zone and derives the score, level and wait/cost estimates. Zero nearby
// vessels is a valid result, not an error.
func (c *classifier) Snapshot(port marine.Port, fixes []marine.PositionFix, at time.Time) (Snapshot, error) {
	if port.Position == nil {
		return Snapshot{}, ErrNoCoordinates
	}

	var counts Counts
	var ranked []RankedVessel

	for _, fix := range fixes {
		distance, err := c.geo.PointToPoint(fix.Position, *port.Position)
		if err != nil {
			// A fix with bogus coordinates is skipped, not fatal
			continue
		}
		if distance > c.cfg.ScanRadiusNm {
			continue
		}

		zone := c.classifyZone(distance, fix)
		switch zone {
		case ZoneAnchorage:
			counts.Anchorage++
		case ZoneApproach:
			counts.Approach++
		case ZoneTransit:
			counts.Transit++
		}

		ranked = append(ranked, RankedVessel{
			VesselID:   fix.VesselID,
			VesselName: fix.VesselName,
			Zone:       zone,
			Position:   fix.Position,
			DistanceNm: distance,
			SpeedKnots: fix.SpeedKnots,
			NavStatus:  fix.NavStatus,
			Track:      fix.Track,
			ObservedAt: fix.ObservedAt,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].DistanceNm < ranked[j].DistanceNm
	})
	if len(ranked) > c.cfg.MaxRankedVessels {
		ranked = ranked[:c.cfg.MaxRankedVessels]
	}

	score := c.cfg.AnchorageScoreWeight*counts.Anchorage + c.cfg.ApproachScoreWeight*counts.Approach
	waitHours := c.cfg.AnchorageWaitHours*float64(counts.Anchorage) + c.cfg.ApproachWaitHours*float64(counts.Approach)

	return Snapshot{
		PortCode:              port.Code,
		PortName:              port.Name,
		Counts:                counts,
		Score:                 score,
		Level:                 c.level(score),
		EstimatedWaitHours:    waitHours,
		DetentionCostEstimate: waitHours * c.cfg.HourlyCostRate,
		Vessels:               ranked,
		DataWindowHours:       c.cfg.DataWindow.Hours(),
		ComputedAt:            at,
	}, nil
}

// classifyZone places one vessel into exactly one zone. Anchorage takes
// precedence over approach; both boundaries are inclusive.
func (c *classifier) classifyZone(distance float64, fix marine.PositionFix) Zone {
	stationary := fix.NavStatus != nil && fix.NavStatus.Stationary()

	if distance <= c.cfg.AnchorageRadiusNm && (fix.SpeedKnots <= c.cfg.AnchorageMaxKnots || stationary) {
		return ZoneAnchorage
	}
	if distance <= c.cfg.ApproachRadiusNm && fix.SpeedKnots <= c.cfg.ApproachMaxKnots {
		return ZoneApproach
	}
	return ZoneTransit
}

// level maps a score onto the severity step function
func (c *classifier) level(score int) Level {
	switch {
	case score >= c.cfg.CriticalScore:
		return LevelCritical
	case score >= c.cfg.HighScore:
		return LevelHigh
	case score >= c.cfg.ModerateScore:
		return LevelModerate
	default:
		return LevelLow
	}
}
