package prearrival

import (
	"time"

	"github.com/quayside/portpulse/server/internal/marine"
)

// Confidence is the qualitative certainty that a vessel is genuinely inbound
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Vessel is one inbound candidate with its ETA and confidence tier.
// ETAHours is always DistanceNm / SpeedKnots; vessels below the speed
// floor never appear here.
type Vessel struct {
	VesselID         string     `json:"vessel_id"`
	VesselName       string     `json:"vessel_name"`
	DistanceNm       float64    `json:"distance_nm"`
	SpeedKnots       float64    `json:"speed_knots"`
	HeadingDegrees   *float64   `json:"heading_degrees,omitempty"`
	BearingToPortDeg float64    `json:"bearing_to_port_degrees"`
	ETAHours         float64    `json:"eta_hours"`
	ETATimestamp     time.Time  `json:"eta_timestamp"`
	Confidence       Confidence `json:"confidence"`
	LastObservedAt   time.Time  `json:"last_observed_at"`
}

// Forecast is the pre-arrival list for one port, sorted by ascending ETA
type Forecast struct {
	PortCode    string    `json:"port_code"`
	PortName    string    `json:"port_name"`
	WindowHours float64   `json:"window_hours"`
	Vessels     []Vessel  `json:"vessels"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Predictor judges which vessels are genuinely inbound to a port within a
// time window, as opposed to merely passing nearby.
type Predictor interface {
	Forecast(port marine.Port, fixes []marine.PositionFix, window time.Duration, at time.Time) (Forecast, error)
}

// NewPredictor is implemented in predictor.go
