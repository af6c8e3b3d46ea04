// Package monitor implements the Scheduler/Monitor Loop: a single
// long-lived task cycling through idle, scanning, and monitoring
// modes, driving the library scan, the tracker poll, and the
// pending-expiry sweep on independent tickers, one event bus shared
// across all of them.
package monitor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vmunix/felscan/internal/collection"
	"github.com/vmunix/felscan/internal/coordinator"
	"github.com/vmunix/felscan/internal/events"
	"github.com/vmunix/felscan/internal/extractor"
	"github.com/vmunix/felscan/internal/tracker"
)

// Mode is the Scheduler/Monitor Loop's current state.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeScanning   Mode = "scanning"
	ModeMonitoring Mode = "monitoring"
)

// Config carries the three independent cadences plus the library
// section to scan.
type Config struct {
	ScanFrequency      time.Duration
	TrackerPollInterval time.Duration
	ExpirySweepInterval time.Duration // defaults to one minute when zero
	PlexSection         string
}

// Extractor is the subset of internal/extractor.Extractor the
// scheduler drives for B.
type Extractor interface {
	ScanLibrary(ctx context.Context, section string) (extractor.Result, error)
}

// Reconciler is the subset of internal/collection.Reconciler the
// scheduler drives for C.
type Reconciler interface {
	Reconcile(ctx context.Context, mode collection.Mode, defs []collection.Definition) []collection.Result
}

// Coordinator is the subset of internal/coordinator.Coordinator the
// scheduler drives for F's discovery and expiry paths.
type Coordinator interface {
	ProcessDiscovery(ctx context.Context, rec tracker.Record) coordinator.DiscoveryResult
	SweepExpired(now time.Time) (int, error)
}

// Runner owns the scheduler's mode and its three ticker loops.
type Runner struct {
	cfg         Config
	extractor   Extractor
	reconciler  Reconciler
	coordinator Coordinator
	feed        tracker.Feed
	collections []collection.Definition
	bus         *events.Bus
	logger      *slog.Logger

	mode      atomic.Value // Mode
	scanning  atomic.Bool
	pollQueued atomic.Bool

	mu   sync.Mutex
	seen map[string]bool

	nextScan time.Time
}

// New creates a Runner in idle mode.
func New(cfg Config, extractor Extractor, reconciler Reconciler, coordinator Coordinator, feed tracker.Feed, collections []collection.Definition, bus *events.Bus, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ExpirySweepInterval == 0 {
		cfg.ExpirySweepInterval = time.Minute
	}
	r := &Runner{
		cfg:         cfg,
		extractor:   extractor,
		reconciler:  reconciler,
		coordinator: coordinator,
		feed:        feed,
		collections: collections,
		bus:         bus,
		logger:      logger.With("component", "monitor"),
		seen:        make(map[string]bool),
	}
	r.mode.Store(ModeIdle)
	return r
}

// Mode reports the current loop state.
func (r *Runner) Mode() Mode {
	return r.mode.Load().(Mode)
}

// SetMode transitions the loop. Moving to idle does not interrupt an
// in-flight scan; it only stops further batches from being scheduled
// once the current tick observes the change, a 60s worst case at the
// loop's 1-minute ticker granularity.
func (r *Runner) SetMode(m Mode) {
	r.mode.Store(m)
}

// Run starts the three independent ticker loops and blocks until ctx
// is cancelled or one loop returns an error.
func (r *Runner) Run(ctx context.Context) error {
	r.SetMode(ModeMonitoring)
	r.nextScan = time.Now().Add(r.cfg.ScanFrequency)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return r.scanLoop(ctx) })
	g.Go(func() error { return r.trackerLoop(ctx) })
	g.Go(func() error { return r.expiryLoop(ctx) })

	return g.Wait()
}

// scanLoop wakes once a minute to check whether scan_frequency has
// elapsed; a minute tick (rather than a single long timer) is what
// gives SetMode(idle) its "within one tick" cancellation bound.
func (r *Runner) scanLoop(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r.Mode() == ModeIdle {
				continue
			}
			if time.Now().Before(r.nextScan) {
				continue
			}
			r.runScan(ctx)
			r.nextScan = time.Now().Add(r.cfg.ScanFrequency)
		}
	}
}

// TriggerScan runs a library scan and collection reconcile in scan
// mode immediately, outside the regular cadence, for the control-plane's
// "trigger scan" operation.
func (r *Runner) TriggerScan(ctx context.Context) {
	r.runScan(ctx)
	r.nextScan = time.Now().Add(r.cfg.ScanFrequency)
}

// TriggerVerify runs C alone in verify mode for the control-plane's
// "trigger verify" operation: checks every curated collection against
// the capability store and removes stale members, without rescanning
// the Plex library first.
func (r *Runner) TriggerVerify(ctx context.Context) []collection.Result {
	return r.reconciler.Reconcile(ctx, collection.ModeVerify, r.collections)
}

// Snapshot reports the scheduler's current state for the
// control-plane's status operation.
type Snapshot struct {
	Mode        Mode
	NextScanAt  time.Time
	IsScanning  bool
}

func (r *Runner) Snapshot() Snapshot {
	return Snapshot{Mode: r.Mode(), NextScanAt: r.nextScan, IsScanning: r.scanning.Load()}
}

// runScan performs B (library extraction) followed by C (collection
// reconciliation in scan mode), under the is_scanning gate so a
// concurrent tracker poll coalesces into one queued retry instead of
// racing the scan.
func (r *Runner) runScan(ctx context.Context) {
	r.scanning.Store(true)
	defer r.scanning.Store(false)
	prev := r.Mode()
	r.mode.CompareAndSwap(prev, ModeScanning)
	defer r.mode.CompareAndSwap(ModeScanning, prev)

	r.logger.Info("scan started")
	if _, err := r.extractor.ScanLibrary(ctx, r.cfg.PlexSection); err != nil {
		r.logger.Error("library scan failed", "error", err)
		return
	}
	results := r.reconciler.Reconcile(ctx, collection.ModeScan, r.collections)
	for _, res := range results {
		if len(res.Failures) > 0 {
			r.logger.Warn("collection reconcile had failures", "collection", res.Collection, "failures", len(res.Failures))
		}
	}
	r.logger.Info("scan completed")

	if r.pollQueued.CompareAndSwap(true, false) {
		r.pollTracker(ctx)
	}
}

// trackerLoop polls the tracker feed and hands each newly seen record
// to the Download Coordinator.
func (r *Runner) trackerLoop(ctx context.Context) error {
	if r.cfg.TrackerPollInterval <= 0 || r.feed == nil {
		return nil
	}
	ticker := time.NewTicker(r.cfg.TrackerPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r.Mode() == ModeIdle {
				continue
			}
			if r.scanning.Load() {
				// Coalesce: exactly one retry once the scan finishes.
				r.pollQueued.Store(true)
				continue
			}
			r.pollTracker(ctx)
		}
	}
}

// pollTracker fetches one snapshot and diffs it against previously
// seen identifiers, so a tracker feed that repeats entries across
// polls never produces duplicate discoveries.
func (r *Runner) pollTracker(ctx context.Context) {
	records, err := r.feed.Poll(ctx)
	if err != nil {
		r.logger.Error("tracker poll failed", "error", err)
		return
	}

	r.mu.Lock()
	var fresh []tracker.Record
	for _, rec := range records {
		if r.seen[rec.Identifier] {
			continue
		}
		r.seen[rec.Identifier] = true
		fresh = append(fresh, rec)
	}
	r.mu.Unlock()

	for _, rec := range fresh {
		result := r.coordinator.ProcessDiscovery(ctx, rec)
		r.logger.Info("discovery processed", "identifier", rec.Identifier, "outcome", result.Outcome, "reason", result.Reason)
	}
}

// expiryLoop calls sweep_expired once a minute.
func (r *Runner) expiryLoop(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.ExpirySweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := r.coordinator.SweepExpired(time.Now())
			if err != nil {
				r.logger.Error("sweep_expired failed", "error", err)
				continue
			}
			if n > 0 {
				r.logger.Info("expired pending downloads", "count", n)
			}
		}
	}
}
