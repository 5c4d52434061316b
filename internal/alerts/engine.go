package alerts

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/quayside/portpulse/server/internal/config"
	"github.com/quayside/portpulse/server/internal/lib/congestion"
	"github.com/quayside/portpulse/server/internal/lib/prearrival"
	"github.com/quayside/portpulse/server/internal/marine"
)

// SnapshotSource supplies the congestion view of a port
type SnapshotSource interface {
	Snapshot(ctx context.Context, portCode string) (congestion.Snapshot, error)
}

// ForecastSource supplies the pre-arrival view of a port
type ForecastSource interface {
	Forecast(ctx context.Context, portCode string, window time.Duration) (prearrival.Forecast, error)
}

// DocumentSource supplies document-readiness signals per vessel and port
type DocumentSource interface {
	Signals(ctx context.Context, vesselID, portCode string) (marine.DocumentSignals, error)
}

// Dispatcher delivers a recorded alert to the configured channels.
// Implementations own their timeouts; delivery failures must never
// propagate back into the evaluation pass.
type Dispatcher interface {
	Dispatch(ctx context.Context, alert Alert, summary string)
}

// Engine runs rule evaluation passes over ports. Each pass is stateless;
// the only persistent state is the append-only alert history used for
// deduplication.
type Engine struct {
	cfg        config.AlertsConfig
	congestion SnapshotSource
	prearrival ForecastSource
	documents  DocumentSource
	store      Store
	dispatcher Dispatcher
	summarizer Summarizer
	now        func() time.Time
	locks      *portLocks
}

// NewEngine creates an alert engine. summarizer may be nil, in which case
// the template summary is used.
func NewEngine(
	cfg config.AlertsConfig,
	snapshots SnapshotSource,
	forecasts ForecastSource,
	documents DocumentSource,
	store Store,
	dispatcher Dispatcher,
	summarizer Summarizer,
) *Engine {
	if summarizer == nil {
		summarizer = TemplateSummarizer{}
	}
	return &Engine{
		cfg:        cfg,
		congestion: snapshots,
		prearrival: forecasts,
		documents:  documents,
		store:      store,
		dispatcher: dispatcher,
		summarizer: summarizer,
		now:        time.Now,
		locks:      newPortLocks(),
	}
}

// WithClock overrides the engine clock for deterministic dedup testing
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Evaluate runs one full rule pass for a port and returns the alerts that
// actually fired (survived suppression and deduplication). Evaluations of
// the same port are serialized so the dedup scan-then-append cycle cannot
// race with itself; different ports run independently.
func (e *Engine) Evaluate(ctx context.Context, portCode string) ([]Alert, error) {
	unlock := e.locks.lock(portCode)
	defer unlock()

	snap, err := e.congestion.Snapshot(ctx, portCode)
	if err != nil {
		return nil, fmt.Errorf("congestion snapshot for %s: %w", portCode, err)
	}
	forecast, err := e.prearrival.Forecast(ctx, portCode, 0)
	if err != nil {
		return nil, fmt.Errorf("pre-arrival forecast for %s: %w", portCode, err)
	}

	candidates := e.collectCandidates(ctx, portCode, snap, forecast)

	var fired []Alert
	for _, candidate := range candidates {
		if e.suppressed(candidate.Type) {
			continue
		}
		dupe, err := e.isDuplicate(ctx, candidate)
		if err != nil {
			log.Printf("Dedup scan failed for %s, firing anyway: %v", portCode, err)
		} else if dupe {
			continue
		}

		candidate.ID = uuid.NewString()
		candidate.Timestamp = e.now()
		if err := e.store.Append(ctx, candidate); err != nil {
			return fired, fmt.Errorf("failed to record alert: %w", err)
		}
		fired = append(fired, candidate)

		summary, _ := e.summarizer.Condense(ctx, candidate)
		e.dispatcher.Dispatch(ctx, candidate, summary)
	}

	return fired, nil
}

// collectCandidates applies every rule and returns the alerts that would
// fire, before suppression and dedup.
func (e *Engine) collectCandidates(ctx context.Context, portCode string, snap congestion.Snapshot, forecast prearrival.Forecast) []Alert {
	var candidates []Alert

	if e.levelAlerts(snap.Level) {
		severity := SeverityWarning
		if snap.Level == congestion.LevelCritical {
			severity = SeverityCritical
		}
		candidates = append(candidates, Alert{
			PortCode: portCode,
			Type:     TypeHighCongestion,
			Severity: severity,
			Message: fmt.Sprintf("Congestion at %s is %s: score %d, %d at anchorage, estimated wait %.1f hours",
				snap.PortName, snap.Level, snap.Score, snap.Counts.Anchorage, snap.EstimatedWaitHours),
		})
	}

	for _, vessel := range forecast.Vessels {
		if vessel.ETAHours <= e.cfg.ETAImminentHours {
			severity := SeverityWarning
			if vessel.ETAHours <= e.cfg.ETACriticalHours {
				severity = SeverityCritical
			}
			candidates = append(candidates, Alert{
				PortCode:   portCode,
				Type:       TypeETAImminent,
				Severity:   severity,
				VesselID:   vessel.VesselID,
				VesselName: vessel.VesselName,
				Message: fmt.Sprintf("%s is %.1f nm out at %.1f kn, ETA %.1f hours",
					vessel.VesselName, vessel.DistanceNm, vessel.SpeedKnots, vessel.ETAHours),
			})
		}

		signals, err := e.documents.Signals(ctx, vessel.VesselID, portCode)
		if err != nil {
			// Missing document signals degrade the pass, they don't abort it
			log.Printf("Document signals unavailable for %s at %s: %v", vessel.VesselID, portCode, err)
			continue
		}
		if signals.AnyOverdue {
			candidates = append(candidates, Alert{
				PortCode:   portCode,
				Type:       TypeDocumentOverdue,
				Severity:   SeverityWarning,
				VesselID:   vessel.VesselID,
				VesselName: vessel.VesselName,
				Message: fmt.Sprintf("%s has overdue mandatory documents ahead of arrival (ETA %.1f hours)",
					vessel.VesselName, vessel.ETAHours),
			})
		}
		if signals.DangerousGoodsSubmitted {
			candidates = append(candidates, Alert{
				PortCode:   portCode,
				Type:       TypeDangerousGoods,
				Severity:   SeverityWarning,
				VesselID:   vessel.VesselID,
				VesselName: vessel.VesselName,
				Message: fmt.Sprintf("%s inbound with declared dangerous goods, ETA %.1f hours",
					vessel.VesselName, vessel.ETAHours),
			})
		}
	}

	return candidates
}

// isDuplicate reports whether an unacknowledged alert for the same
// condition fired within the dedup window.
func (e *Engine) isDuplicate(ctx context.Context, candidate Alert) (bool, error) {
	history, err := e.store.History(ctx, candidate.PortCode, 0)
	if err != nil {
		return false, err
	}

	cutoff := e.now().Add(-e.cfg.DedupWindow)
	key := candidate.DedupKey()
	for _, previous := range history {
		if previous.Timestamp.Before(cutoff) {
			// History is newest first; everything further back is older
			break
		}
		if !previous.Acknowledged && previous.DedupKey() == key {
			return true, nil
		}
	}
	return false, nil
}

// Acknowledge marks an alert acknowledged. Idempotent; reports whether a
// matching alert was found.
func (e *Engine) Acknowledge(ctx context.Context, portCode, alertID string) (bool, error) {
	return e.store.Acknowledge(ctx, portCode, alertID)
}

// History exposes the retained alert log for a port, newest first
func (e *Engine) History(ctx context.Context, portCode string, limit int) ([]Alert, error) {
	return e.store.History(ctx, portCode, limit)
}

func (e *Engine) suppressed(alertType Type) bool {
	for _, suppressed := range e.cfg.SuppressedTypes {
		if Type(suppressed) == alertType {
			return true
		}
	}
	return false
}

func (e *Engine) levelAlerts(level congestion.Level) bool {
	for _, configured := range e.cfg.CongestionAlertLevels {
		if congestion.Level(configured) == level {
			return true
		}
	}
	return false
}
