package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/quayside/portpulse/server/internal/alerts"
	"github.com/quayside/portpulse/server/internal/config"
)

// AlertEvaluator runs one alert rule pass for a port
type AlertEvaluator interface {
	Evaluate(ctx context.Context, portCode string) ([]alerts.Alert, error)
}

// Sweeper evaluates every watched port on a fixed schedule. One port
// failing never blocks the rest of the sweep.
type Sweeper struct {
	cfg    config.SweepConfig
	engine AlertEvaluator
	cron   *cron.Cron
}

// NewSweeper creates the recurring sweep over the configured watched ports
func NewSweeper(cfg config.SweepConfig, engine AlertEvaluator) *Sweeper {
	return &Sweeper{
		cfg:    cfg,
		engine: engine,
		cron:   cron.New(),
	}
}

// Start schedules the sweep and runs an immediate first pass in the
// background so dashboards aren't empty until the first tick.
func (s *Sweeper) Start(ctx context.Context) error {
	if len(s.cfg.WatchedPorts) == 0 {
		log.Printf("No watched ports configured, sweep disabled")
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.cfg.Interval)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	go s.RunOnce(ctx)
	log.Printf("Sweep scheduled every %s over %d ports", s.cfg.Interval, len(s.cfg.WatchedPorts))
	return nil
}

// RunOnce evaluates every watched port. Returns the total number of alerts
// fired across the sweep.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	started := time.Now()
	total := 0
	for _, portCode := range s.cfg.WatchedPorts {
		fired, err := s.engine.Evaluate(ctx, portCode)
		if err != nil {
			if errors.Is(err, ErrPortUnavailable) {
				log.Printf("Sweep skipping %s: %v", portCode, err)
			} else {
				log.Printf("Sweep failed for %s: %v", portCode, err)
			}
			continue
		}
		total += len(fired)
	}
	log.Printf("Sweep complete: %d ports, %d alerts fired in %s", len(s.cfg.WatchedPorts), total, time.Since(started).Round(time.Millisecond))
	return total
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
}
