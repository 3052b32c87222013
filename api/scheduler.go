/*
scheduler.go - Automated depreciation snapshot scheduler

PURPOSE:
  Periodically records month-start depreciation figures for every ACTIVE
  asset, so book values can be charted without re-running the calculator
  for past months.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Snapshots are keyed by asset and month, so ticking many times a month
    overwrites the same rows instead of piling up duplicates
  - Assets that fail to evaluate are logged and skipped by the ledger

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSnapshotScheduler(ledger, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerSnapshot endpoint (manual run)
  - service/assets.go: SnapshotDepreciation
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/amortization-engine/generic"
	"github.com/warp/amortization-engine/service"
)

// SnapshotScheduler writes depreciation snapshots on a ticker.
type SnapshotScheduler struct {
	Ledger        *service.Ledger
	Log           zerolog.Logger
	CheckInterval time.Duration
	Enabled       bool

	// Today picks the snapshot month. Tests pin it.
	Today func() generic.TimePoint

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex

	// statsMu guards lastRun; mu is held across Stop's wait.
	statsMu sync.Mutex
	lastRun time.Time
}

// NewSnapshotScheduler creates a new scheduler.
func NewSnapshotScheduler(ledger *service.Ledger, logger zerolog.Logger) *SnapshotScheduler {
	return &SnapshotScheduler{
		Ledger:        ledger,
		Log:           logger.With().Str("component", "scheduler").Logger(),
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Today:         generic.Today,
	}
}

// Start begins the scheduler.
func (s *SnapshotScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.Log.Info().Msg("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.Log.Info().Dur("interval", s.CheckInterval).Msg("started")
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *SnapshotScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Log.Info().Msg("stopped")
	}
}

func (s *SnapshotScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.RunNow()

	for {
		select {
		case <-s.ticker.C:
			s.RunNow()
		case <-s.stop:
			return
		}
	}
}

// RunNow performs one snapshot pass synchronously and returns how many
// snapshots were written.
func (s *SnapshotScheduler) RunNow() int {
	ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout())
	defer cancel()

	asOf := s.Today()
	n, err := s.Ledger.SnapshotDepreciation(ctx, asOf)
	snapshotsWritten.Add(float64(n))
	if err != nil {
		snapshotRunFailures.Inc()
		s.Log.Error().Err(err).Str("as_of", asOf.String()).Int("written", n).Msg("snapshot run failed")
		return n
	}

	s.statsMu.Lock()
	s.lastRun = time.Now()
	s.statsMu.Unlock()
	return n
}

// LastRun reports when the last successful pass finished (zero if none).
func (s *SnapshotScheduler) LastRun() time.Time {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.lastRun
}

// runTimeout bounds one pass to a single interval.
func (s *SnapshotScheduler) runTimeout() time.Duration {
	if s.CheckInterval > 0 {
		return s.CheckInterval
	}
	return time.Minute
}
