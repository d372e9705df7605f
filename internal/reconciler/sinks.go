package reconciler

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/concave-dev/otto/internal/logging"
	"github.com/concave-dev/otto/internal/netstate"
)

// LogSink logs a summary of every observation and, at debug level, each
// change.
type LogSink struct{}

// Apply logs the observation.
func (LogSink) Apply(_ context.Context, obs Observation) error {
	report := obs.Report

	if len(obs.Unreachable) > 0 {
		logging.Warn("Unreachable switches this iteration: %v", obs.Unreachable)
	}

	if report.Empty() {
		logging.Debug("No drift across %d live switches", len(obs.Live))
		return nil
	}

	logging.Warn("Network drift detected: %d changes (added %v, removed %v, modified %v)",
		len(report.Changes), report.Added, report.Removed, report.Modified)
	for _, c := range report.Changes {
		logging.Debug("  %s %s: %v -> %v", c.Kind, c.Path, c.Before, c.After)
	}
	return nil
}

// RegistryWriter is the registry surface the sync sink mutates.
type RegistryWriter interface {
	Put(ctx context.Context, rec netstate.Record) (string, error)
	Update(ctx context.Context, name string, patch netstate.Record) error
	Remove(ctx context.Context, name string) error
}

// RegistrySyncSink applies each report to the registry: new switches are
// inserted, changed ones updated in place by store identity, vanished ones
// removed. Switches that were unreachable this iteration are never removed.
type RegistrySyncSink struct {
	Registry RegistryWriter
}

// Apply writes the observation into the registry and joins every failure.
func (s RegistrySyncSink) Apply(ctx context.Context, obs Observation) error {
	var errs []error

	for _, name := range obs.Report.Added {
		rec, ok := obs.Live[name]
		if !ok {
			continue
		}
		_, err := s.Registry.Put(ctx, rec)
		if errors.Is(err, netstate.ErrDuplicateSwitch) {
			err = s.Registry.Update(ctx, name, rec)
		}
		errs = append(errs, s.record("put", name, err))
	}

	for _, name := range obs.Report.Modified {
		rec, ok := obs.Live[name]
		if !ok {
			continue
		}
		errs = append(errs, s.record("update", name, s.Registry.Update(ctx, name, rec)))
	}

	for _, name := range obs.Report.Removed {
		if slices.Contains(obs.Unreachable, name) {
			logging.Debug("Keeping unreachable switch %s in registry", name)
			continue
		}
		err := s.Registry.Remove(ctx, name)
		if errors.Is(err, netstate.ErrUnknownSwitch) {
			err = nil
		}
		errs = append(errs, s.record("remove", name, err))
	}

	return errors.Join(errs...)
}

func (s RegistrySyncSink) record(op, name string, err error) error {
	if err != nil {
		syncOperations.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("%s switch %s: %w", op, name, err)
	}
	syncOperations.WithLabelValues(op, "ok").Inc()
	logging.Info("Registry sync: %s switch %s", op, name)
	return nil
}
