// Package marine holds the shared vessel and port value types consumed by
// the congestion, pre-arrival and alerting components. Vessels, ports and
// documents are owned by external systems; these are transient copies used
// during a single evaluation pass.
package marine

import (
	"time"

	"github.com/quayside/portpulse/server/internal/lib/geo"
)

// NavStatus is an AIS navigation status code.
type NavStatus int

// AIS navigation status codes relevant to zone classification.
const (
	NavStatusUnderWay NavStatus = 0
	NavStatusAtAnchor NavStatus = 1
	NavStatusMoored   NavStatus = 5
	NavStatusAground  NavStatus = 6
)

// Stationary reports whether the status indicates a vessel that is not
// making way (anchored, moored, or aground).
func (s NavStatus) Stationary() bool {
	return s == NavStatusAtAnchor || s == NavStatusMoored || s == NavStatusAground
}

// PositionFix is a single AIS-style position report, the most recent known
// location of one vessel. Heading and navigation status are optional:
// nil means the transponder did not report them.
type PositionFix struct {
	VesselID       string      `json:"vessel_id"`
	VesselName     string      `json:"vessel_name"`
	Position       geo.Point   `json:"position"`
	SpeedKnots     float64     `json:"speed_knots"`
	HeadingDegrees *float64    `json:"heading_degrees,omitempty"`
	NavStatus      *NavStatus  `json:"nav_status,omitempty"`
	Track          []geo.Point `json:"track,omitempty"`
	ObservedAt     time.Time   `json:"observed_at"`
}

// Port is a port directory entry keyed by a UN/LOCODE-style code.
// Position is nil for ports the directory knows by name but has no
// coordinates for; such ports cannot be evaluated.
type Port struct {
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	Country  string     `json:"country"`
	Position *geo.Point `json:"position,omitempty"`
}

// DocumentSignals summarizes document readiness for one vessel at one port.
type DocumentSignals struct {
	AnyOverdue              bool `json:"any_overdue"`
	DangerousGoodsSubmitted bool `json:"dangerous_goods_submitted"`
}

// DedupeLatest reduces a most-recent-first fix list to one fix per vessel,
// keeping the newest fix and dropping any observed before the cutoff.
func DedupeLatest(fixes []PositionFix, cutoff time.Time) []PositionFix {
	seen := make(map[string]bool, len(fixes))
	var latest []PositionFix

	for _, fix := range fixes {
		if fix.VesselID == "" || seen[fix.VesselID] {
			continue
		}
		if fix.ObservedAt.Before(cutoff) {
			continue
		}
		seen[fix.VesselID] = true
		latest = append(latest, fix)
	}

	return latest
}
