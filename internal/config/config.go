package config

import (
	"time"
)

// Config represents the complete server configuration
type Config struct {
	Congestion CongestionConfig `yaml:"congestion"`
	PreArrival PreArrivalConfig `yaml:"pre_arrival"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Notify     NotifyConfig     `yaml:"notify"`
	Enhancer   EnhancerConfig   `yaml:"enhancer"`
	Feeds      FeedsConfig      `yaml:"feeds"`
	Sweep      SweepConfig      `yaml:"sweep"`
}

// CongestionConfig holds every tunable used by the congestion classifier.
// The score weights and dwell multipliers are operational heuristics, not
// values validated against measured port data; treat them as tunable.
type CongestionConfig struct {
	ScanRadiusNm         float64       `yaml:"scan_radius_nm"`
	AnchorageRadiusNm    float64       `yaml:"anchorage_radius_nm"`
	AnchorageMaxKnots    float64       `yaml:"anchorage_max_knots"`
	ApproachRadiusNm     float64       `yaml:"approach_radius_nm"`
	ApproachMaxKnots     float64       `yaml:"approach_max_knots"`
	AnchorageScoreWeight int           `yaml:"anchorage_score_weight"`
	ApproachScoreWeight  int           `yaml:"approach_score_weight"`
	ModerateScore        int           `yaml:"moderate_score"`
	HighScore            int           `yaml:"high_score"`
	CriticalScore        int           `yaml:"critical_score"`
	AnchorageWaitHours   float64       `yaml:"anchorage_wait_hours"`
	ApproachWaitHours    float64       `yaml:"approach_wait_hours"`
	HourlyCostRate       float64       `yaml:"hourly_cost_rate"`
	MaxRankedVessels     int           `yaml:"max_ranked_vessels"`
	DataWindow           time.Duration `yaml:"data_window"`
	SnapshotTTL          time.Duration `yaml:"snapshot_ttl"`
}

// PreArrivalConfig holds every tunable used by the pre-arrival predictor
type PreArrivalConfig struct {
	SearchRadiusNm        float64       `yaml:"search_radius_nm"`
	MinSpeedKnots         float64       `yaml:"min_speed_knots"`
	InboundHeadingDegrees float64       `yaml:"inbound_heading_degrees"`
	HighConfidenceDegrees float64       `yaml:"high_confidence_degrees"`
	MedConfidenceDegrees  float64       `yaml:"med_confidence_degrees"`
	DataWindow            time.Duration `yaml:"data_window"`
	DefaultETAWindow      time.Duration `yaml:"default_eta_window"`
	SnapshotTTL           time.Duration `yaml:"snapshot_ttl"`
}

// AlertsConfig holds alert rule thresholds and dedup behavior
type AlertsConfig struct {
	ETAImminentHours      float64       `yaml:"eta_imminent_hours"`
	ETACriticalHours      float64       `yaml:"eta_critical_hours"`
	CongestionAlertLevels []string      `yaml:"congestion_alert_levels"`
	SuppressedTypes       []string      `yaml:"suppressed_types"`
	DedupWindow           time.Duration `yaml:"dedup_window"`
	MaxHistoryPerPort     int           `yaml:"max_history_per_port"`
	HistoryPath           string        `yaml:"history_path"`
}

// NotifyConfig holds outbound notification channel settings
type NotifyConfig struct {
	DeliveryTimeout   time.Duration   `yaml:"delivery_timeout"`
	RequestsPerMinute int             `yaml:"requests_per_minute"`
	Burst             int             `yaml:"burst"`
	Chat              ChatChannel     `yaml:"chat"`
	Webhooks          []WebhookTarget `yaml:"webhooks"`
}

// ChatChannel configures the chat webhook channel (Slack-compatible payload)
type ChatChannel struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookTarget configures a generic JSON webhook receiver
type WebhookTarget struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// EnhancerConfig holds the optional alert summary enhancer settings
type EnhancerConfig struct {
	APIKey   string        `yaml:"api_key"`
	Model    string        `yaml:"model"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// FeedsConfig holds external collaborator endpoints
type FeedsConfig struct {
	Positions PositionFeedConfig `yaml:"positions"`
	PortDir   ServiceConfig      `yaml:"port_directory"`
	Documents ServiceConfig      `yaml:"documents"`
}

// PositionFeedConfig holds the AIS position feed settings
type PositionFeedConfig struct {
	URL     string        `yaml:"url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// ServiceConfig holds a plain HTTP collaborator endpoint
type ServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SweepConfig holds the recurring evaluation sweep settings
type SweepConfig struct {
	Interval     time.Duration `yaml:"interval"`
	WatchedPorts []string      `yaml:"watched_ports"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Congestion: CongestionConfig{
			ScanRadiusNm:         25,
			AnchorageRadiusNm:    8,
			AnchorageMaxKnots:    2,
			ApproachRadiusNm:     20,
			ApproachMaxKnots:     5,
			AnchorageScoreWeight: 15,
			ApproachScoreWeight:  5,
			ModerateScore:        10,
			HighScore:            25,
			CriticalScore:        50,
			AnchorageWaitHours:   6,
			ApproachWaitHours:    2,
			HourlyCostRate:       500,
			MaxRankedVessels:     25,
			DataWindow:           6 * time.Hour,
			SnapshotTTL:          60 * time.Second,
		},
		PreArrival: PreArrivalConfig{
			SearchRadiusNm:        200,
			MinSpeedKnots:         3,
			InboundHeadingDegrees: 45,
			HighConfidenceDegrees: 15,
			MedConfidenceDegrees:  30,
			DataWindow:            12 * time.Hour,
			DefaultETAWindow:      48 * time.Hour,
			SnapshotTTL:           60 * time.Second,
		},
		Alerts: AlertsConfig{
			ETAImminentHours:      6,
			ETACriticalHours:      2,
			CongestionAlertLevels: []string{"high", "critical"},
			SuppressedTypes:       nil,
			DedupWindow:           60 * time.Minute,
			MaxHistoryPerPort:     500,
		},
		Notify: NotifyConfig{
			DeliveryTimeout:   5 * time.Second,
			RequestsPerMinute: 60,
			Burst:             10,
		},
		Enhancer: EnhancerConfig{
			Model:    "gpt-4o-mini",
			CacheTTL: 24 * time.Hour,
		},
		Feeds: FeedsConfig{
			Positions: PositionFeedConfig{
				URL:     "https://ais.example.com/v1/positions",
				Timeout: 30 * time.Second,
			},
			PortDir: ServiceConfig{
				URL:     "https://ports.example.com/v1",
				Timeout: 10 * time.Second,
			},
			Documents: ServiceConfig{
				URL:     "https://docs.example.com/v1",
				Timeout: 10 * time.Second,
			},
		},
		Sweep: SweepConfig{
			Interval: 15 * time.Minute,
		},
	}
}
