package congestion

import (
	"time"

	"github.com/quayside/portpulse/server/internal/lib/geo"
	"github.com/quayside/portpulse/server/internal/marine"
)

// Zone is the classification bucket for a vessel relative to a port
type Zone string

const (
	ZoneAnchorage Zone = "anchorage"
	ZoneApproach  Zone = "approach"
	ZoneTransit   Zone = "transit"
)

// Level is the congestion severity derived from the score
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Counts holds the number of vessels classified into each zone
type Counts struct {
	Anchorage int `json:"anchorage"`
	Approach  int `json:"approach"`
	Transit   int `json:"transit"`
}

// RankedVessel is one classified vessel in a snapshot, nearest first
type RankedVessel struct {
	VesselID   string            `json:"vessel_id"`
	VesselName string            `json:"vessel_name"`
	Zone       Zone              `json:"zone"`
	Position   geo.Point         `json:"position"`
	DistanceNm float64           `json:"distance_nm"`
	SpeedKnots float64           `json:"speed_knots"`
	NavStatus  *marine.NavStatus `json:"nav_status,omitempty"`
	Track      []geo.Point       `json:"track,omitempty"`
	ObservedAt time.Time         `json:"observed_at"`
}

// Snapshot is a derived congestion view for one port. It is recomputed on
// demand and cached briefly; it is never a source of truth. The score is a
// deterministic function of the zone counts, and the level a step function
// of the score.
type Snapshot struct {
	PortCode              string         `json:"port_code"`
	PortName              string         `json:"port_name"`
	Counts                Counts         `json:"counts"`
	Score                 int            `json:"score"`
	Level                 Level          `json:"level"`
	EstimatedWaitHours    float64        `json:"estimated_wait_hours"`
	DetentionCostEstimate float64        `json:"detention_cost_estimate"`
	Vessels               []RankedVessel `json:"vessels"`
	DataWindowHours       float64        `json:"data_window_hours"`
	ComputedAt            time.Time      `json:"computed_at"`
}

// Classifier produces congestion snapshots from position fixes. It is pure:
// emitting logs or notifications for high/critical levels is the caller's
// concern, so the numeric classification stays testable in isolation.
type Classifier interface {
	Snapshot(port marine.Port, fixes []marine.PositionFix, at time.Time) (Snapshot, error)
}

// NewClassifier is implemented in classifier.go
