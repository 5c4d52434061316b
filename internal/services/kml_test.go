package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quayside/portpulse/server/internal/alerts"
	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/congestion"
	"github.com/quayside/portpulse/server/internal/lib/geo"
)

func TestWriteSnapshotKML(t *testing.T) {
	snapshot := congestion.Snapshot{
		PortCode:           "SGSIN",
		PortName:           "Singapore",
		Level:              congestion.LevelHigh,
		Score:              30,
		Counts:             congestion.Counts{Anchorage: 2},
		EstimatedWaitHours: 12,
		Vessels: []congestion.RankedVessel{
			{
				VesselID:   "v-1",
				VesselName: "Aurora",
				Zone:       congestion.ZoneAnchorage,
				Position:   geo.Point{Latitude: 1.30, Longitude: 103.82},
				DistanceNm: 2.1,
				SpeedKnots: 0.4,
				Track: []geo.Point{
					{Latitude: 1.32, Longitude: 103.80},
					{Latitude: 1.30, Longitude: 103.82},
				},
			},
		},
	}

	var b strings.Builder
	err := WriteSnapshotKML(&b, snapshot, singapore)
	require.NoError(t, err)

	out := b.String()
	assert.Contains(t, out, "<kml")
	assert.Contains(t, out, "Singapore")
	assert.Contains(t, out, "Aurora")
	assert.Contains(t, out, "Aurora track")
	assert.Contains(t, out, "<LineString>")
	assert.Contains(t, out, "103.82,1.3")
}

func TestWriteSnapshotKMLNoVessels(t *testing.T) {
	snapshot := congestion.Snapshot{
		PortCode: "SGSIN",
		PortName: "Singapore",
		Level:    congestion.LevelLow,
	}

	var b strings.Builder
	err := WriteSnapshotKML(&b, snapshot, singapore)
	require.NoError(t, err)
	assert.Contains(t, b.String(), "Singapore")
	assert.NotContains(t, b.String(), "<LineString>")
}

type stubEvaluator struct {
	fired  map[string][]alerts.Alert
	errors map[string]error
	seen   []string
}

func (s *stubEvaluator) Evaluate(ctx context.Context, portCode string) ([]alerts.Alert, error) {
	s.seen = append(s.seen, portCode)
	if err := s.errors[portCode]; err != nil {
		return nil, err
	}
	return s.fired[portCode], nil
}

func TestSweepRunOnce(t *testing.T) {
	evaluator := &stubEvaluator{
		fired: map[string][]alerts.Alert{
			"SGSIN": {{ID: "a-1"}, {ID: "a-2"}},
			"NLRTM": {{ID: "a-3"}},
		},
	}
	cfg := config.SweepConfig{WatchedPorts: []string{"SGSIN", "NLRTM"}}

	total := NewSweeper(cfg, evaluator).RunOnce(context.Background())
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"SGSIN", "NLRTM"}, evaluator.seen)
}

func TestSweepIsolatesPortFailures(t *testing.T) {
	evaluator := &stubEvaluator{
		fired: map[string][]alerts.Alert{
			"NLRTM": {{ID: "a-1"}},
		},
		errors: map[string]error{
			"SGSIN": errors.New("feed down"),
			"XXBAD": ErrPortUnavailable,
		},
	}
	cfg := config.SweepConfig{WatchedPorts: []string{"SGSIN", "XXBAD", "NLRTM"}}

	total := NewSweeper(cfg, evaluator).RunOnce(context.Background())
	assert.Equal(t, 1, total)
	assert.Len(t, evaluator.seen, 3)
}
