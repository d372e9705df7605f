// Package reconciler runs the background loop that compares the registered
// switch snapshot against the live state reported by the controller.
//
// LOOP:
// One goroutine runs an iteration immediately and then on every tick of a
// fixed interval (60s by default). Iterations are serialized; a slow fetch
// delays the next tick but never overlaps it. The loop exits only on context
// cancellation or Stop and survives any single-iteration error, including a
// panicking state source or sink.
//
// ITERATION:
//  1. Fetch live state for registry names plus the controller's switch list,
//     with bounded concurrency. A switch the controller does not know is
//     absent. Any other fetch failure is logged, the switch is treated as
//     absent for the diff and marked unreachable so sinks leave it alone.
//  2. Build a fresh registered snapshot from the registry.
//  3. Diff registered against live, ignoring per-flow duration counters.
//  4. Hand the observation to every sink (logging, optional registry sync).
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/concave-dev/otto/internal/drift"
	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/netstate"
	"github.com/concave-dev/otto/internal/ofctl"
)

// StateSource reads live switch state from the controller.
type StateSource interface {
	ListSwitches(ctx context.Context) ([]string, error)
	SwitchState(ctx context.Context, name string) (netstate.Record, error)
}

// Registered exposes the registered snapshot.
type Registered interface {
	Names() []string
	DumpAll(ctx context.Context) (map[string]netstate.Record, error)
}

// Observation is the outcome of one iteration handed to sinks.
type Observation struct {
	Report drift.Report
	Live   map[string]netstate.Record

	// Unreachable lists switches whose live fetch failed this iteration
	Unreachable []string
}

// Sink consumes observations.
type Sink interface {
	Apply(ctx context.Context, obs Observation) error
}

// Config holds reconciler timing and concurrency settings.
type Config struct {
	Interval             time.Duration
	MaxConcurrentFetches int
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("reconcile interval must be positive, got %v", c.Interval)
	}
	if c.MaxConcurrentFetches < 1 {
		return fmt.Errorf("max concurrent fetches must be at least 1, got %d", c.MaxConcurrentFetches)
	}
	return nil
}

// Stats describes reconciler activity for the API and logs.
type Stats struct {
	Running      bool          `json:"running"`
	Interval     time.Duration `json:"interval"`
	Iterations   int64         `json:"iterations"`
	Failures     int64         `json:"failures"`
	LastRun      time.Time     `json:"lastRun"`
	LastDuration time.Duration `json:"lastDuration"`
	LastError    string        `json:"lastError,omitempty"`
	LastReport   *drift.Report `json:"lastReport,omitempty"`
}

// Describe renders a one-line human summary.
func (s Stats) Describe() string {
	if s.LastRun.IsZero() {
		return "no iterations yet"
	}
	return fmt.Sprintf("%s iterations (%d failed), last %s took %v",
		humanize.Comma(s.Iterations), s.Failures, humanize.Time(s.LastRun), s.LastDuration.Round(time.Millisecond))
}

// Reconciler owns the loop and the most recent observation.
type Reconciler struct {
	registered Registered
	source     StateSource
	sinks      []Sink
	config     Config

	runMu sync.Mutex // serializes iterations

	mu    sync.RWMutex
	stats Stats

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a reconciler. The loop does not start until Run is called.
func New(registered Registered, source StateSource, config Config, sinks ...Sink) (*Reconciler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if registered == nil || source == nil {
		return nil, errors.New("reconciler requires a registry and a state source")
	}

	return &Reconciler{
		registered: registered,
		source:     source,
		sinks:      sinks,
		config:     config,
		stats:      Stats{Interval: config.Interval},
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Run executes iterations until ctx is cancelled or Stop is called. It
// blocks; start it on its own goroutine. Only the first call runs the loop.
func (r *Reconciler) Run(ctx context.Context) {
	if !r.started.CompareAndSwap(false, true) {
		logging.Warn("State reconciler already started")
		return
	}
	defer close(r.doneCh)

	select {
	case <-r.stopCh:
		return
	default:
	}

	r.setRunning(true)
	defer r.setRunning(false)

	logging.Info("Starting state reconciler (interval: %v)", r.config.Interval)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	r.iterate(ctx)

	for {
		select {
		case <-ticker.C:
			r.iterate(ctx)
		case <-ctx.Done():
			logging.Info("State reconciler stopped due to context cancellation")
			return
		case <-r.stopCh:
			logging.Info("State reconciler stopped")
			return
		}
	}
}

// Stop ends the loop and waits for the running iteration to finish. Safe to
// call more than once and before Run.
func (r *Reconciler) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })

	if r.started.Load() {
		<-r.doneCh
	}
}

// iterate runs one iteration and logs its failure instead of returning it.
func (r *Reconciler) iterate(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		logging.Error("Reconciliation iteration failed: %v", err)
	}
}

// RunOnce performs a single iteration and returns its drift report.
func (r *Reconciler) RunOnce(ctx context.Context) (drift.Report, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	start := time.Now()
	report, err := r.reconcile(ctx)
	elapsed := time.Since(start)

	iterationDuration.Observe(elapsed.Seconds())

	r.mu.Lock()
	r.stats.Iterations++
	r.stats.LastRun = start
	r.stats.LastDuration = elapsed
	if err != nil {
		r.stats.Failures++
		r.stats.LastError = err.Error()
	} else {
		r.stats.LastError = ""
		r.stats.LastReport = &report
	}
	r.mu.Unlock()

	if err != nil {
		iterationsTotal.WithLabelValues("error").Inc()
		return drift.Report{}, err
	}

	iterationsTotal.WithLabelValues("ok").Inc()
	driftChanges.Set(float64(len(report.Changes)))
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context) (report drift.Report, err error) {
	defer func() {
		if p := recover(); p != nil {
			report, err = drift.Report{}, fmt.Errorf("iteration panicked: %v", p)
		}
	}()

	names := r.knownSwitches(ctx)
	live, unreachable := r.fetchLive(ctx, names)

	if err := ctx.Err(); err != nil {
		return drift.Report{}, err
	}

	registered, err := r.registered.DumpAll(ctx)
	if err != nil {
		return drift.Report{}, fmt.Errorf("build registered snapshot: %w", err)
	}

	report, err = drift.Compare(toSnapshot(registered), toSnapshot(live))
	if err != nil {
		return drift.Report{}, fmt.Errorf("compare snapshots: %w", err)
	}

	obs := Observation{Report: report, Live: live, Unreachable: unreachable}
	for _, sink := range r.sinks {
		if err := applySink(ctx, sink, obs); err != nil {
			logging.Warn("Reconciler sink %T failed: %v", sink, err)
		}
	}

	return report, nil
}

// knownSwitches returns registry names plus the controller's list. A failed
// listing falls back to registry names only.
func (r *Reconciler) knownSwitches(ctx context.Context) []string {
	names := r.registered.Names()

	listed, err := r.source.ListSwitches(ctx)
	if err != nil {
		logging.Warn("Failed to list controller switches, using %d registered names: %v", len(names), err)
		return names
	}

	for _, n := range listed {
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}

// fetchLive fetches every switch with bounded concurrency.
func (r *Reconciler) fetchLive(ctx context.Context, names []string) (map[string]netstate.Record, []string) {
	live := make(map[string]netstate.Record, len(names))
	var unreachable []string
	if len(names) == 0 {
		return live, nil
	}

	maxConcurrent := min(r.config.MaxConcurrentFetches, len(names))
	semaphore := make(chan struct{}, maxConcurrent)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			rec, err := r.fetchSwitch(ctx, name)

			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ofctl.ErrSwitchNotConnected) {
				logging.Debug("Switch %s is not connected to the controller", name)
				return
			}
			if err != nil {
				fetchFailures.Inc()
				logging.Warn("Failed to fetch live state for switch %s, treating as absent: %v", name, err)
				unreachable = append(unreachable, name)
				return
			}
			live[name] = rec
		}(name)
	}
	wg.Wait()

	slices.Sort(unreachable)
	return live, unreachable
}

// fetchSwitch reads one switch. A panicking source counts as a fetch failure.
func (r *Reconciler) fetchSwitch(ctx context.Context, name string) (rec netstate.Record, err error) {
	defer func() {
		if p := recover(); p != nil {
			rec, err = nil, fmt.Errorf("state source panicked: %v", p)
		}
	}()
	return r.source.SwitchState(ctx, name)
}

func applySink(ctx context.Context, sink Sink, obs Observation) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("sink panicked: %v", p)
		}
	}()
	return sink.Apply(ctx, obs)
}

// Stats returns a copy of the current reconciler statistics.
func (r *Reconciler) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// LastReport returns the report of the last successful iteration.
func (r *Reconciler) LastReport() (drift.Report, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stats.LastReport == nil {
		return drift.Report{}, false
	}
	return *r.stats.LastReport, true
}

func (r *Reconciler) setRunning(running bool) {
	r.mu.Lock()
	r.stats.Running = running
	r.mu.Unlock()
}

func toSnapshot(records map[string]netstate.Record) drift.Snapshot {
	snap := make(drift.Snapshot, len(records))
	for name, rec := range records {
		snap[name] = map[string]any(rec)
	}
	return snap
}
