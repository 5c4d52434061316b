package prearrival

import (
	"errors"
	"sort"
	"time"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/geo"
	"github.com/quayside/portpulse/server/internal/marine"
)

// ErrNoCoordinates is returned when a port has no position and therefore
// cannot be evaluated.
var ErrNoCoordinates = errors.New("port has no coordinates")

// predictor implements the Predictor interface
type predictor struct {
	cfg config.PreArrivalConfig
	geo geo.GeoUtils
}

// NewPredictor creates a Predictor with the given thresholds
func NewPredictor(cfg config.PreArrivalConfig, geoUtils geo.GeoUtils) Predictor {
	return &predictor{cfg: cfg, geo: geoUtils}
}

// Forecast filters fixes down to vessels plausibly inbound within the window.
// Proximity alone is not enough: a vessel steaming past the port fails the
// heading-vs-bearing gate. A vessel that reports no heading cannot be
// disproven and stays in at medium confidence.
func (p *predictor) Forecast(port marine.Port, fixes []marine.PositionFix, window time.Duration, at time.Time) (Forecast, error) {
	if port.Position == nil {
		return Forecast{}, ErrNoCoordinates
	}
	if window <= 0 {
		window = p.cfg.DefaultETAWindow
	}

	var vessels []Vessel
	windowHours := window.Hours()

	for _, fix := range fixes {
		distance, err := p.geo.PointToPoint(fix.Position, *port.Position)
		if err != nil {
			continue
		}
		if distance > p.cfg.SearchRadiusNm {
			continue
		}
		// Anchored and drifting traffic belongs to the congestion picture,
		// not the arrival forecast
		if fix.SpeedKnots < p.cfg.MinSpeedKnots {
			continue
		}

		bearing, err := p.geo.InitialBearing(fix.Position, *port.Position)
		if err != nil {
			continue
		}

		confidence := ConfidenceMedium
		if fix.HeadingDegrees != nil {
			delta := p.geo.HeadingDelta(*fix.HeadingDegrees, bearing)
			if delta > p.cfg.InboundHeadingDegrees {
				continue
			}
			confidence = p.confidence(delta)
		}

		etaHours := distance / fix.SpeedKnots
		if etaHours > windowHours {
			continue
		}

		vessels = append(vessels, Vessel{
			VesselID:         fix.VesselID,
			VesselName:       fix.VesselName,
			DistanceNm:       distance,
			SpeedKnots:       fix.SpeedKnots,
			HeadingDegrees:   fix.HeadingDegrees,
			BearingToPortDeg: bearing,
			ETAHours:         etaHours,
			ETATimestamp:     at.Add(time.Duration(etaHours * float64(time.Hour))),
			Confidence:       confidence,
			LastObservedAt:   fix.ObservedAt,
		})
	}

	sort.Slice(vessels, func(i, j int) bool {
		return vessels[i].ETAHours < vessels[j].ETAHours
	})

	return Forecast{
		PortCode:    port.Code,
		PortName:    port.Name,
		WindowHours: windowHours,
		Vessels:     vessels,
		ComputedAt:  at,
	}, nil
}

// confidence maps heading deviation onto a tier
func (p *predictor) confidence(delta float64) Confidence {
	switch {
	case delta <= p.cfg.HighConfidenceDegrees:
		return ConfidenceHigh
	case delta <= p.cfg.MedConfidenceDegrees:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
