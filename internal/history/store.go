// Package history records processed intents and answers the dashboard's
// activity queries.
//
// Only one Store may be open per process. Open claims the slot and Close
// releases it, so the daemon owns the instance explicitly and a second Open
// fails with ErrMultipleInstances instead of silently sharing state.
//
// QUERIES:
//   - LatestActivity  newest records by insertion order, keyed by timestamp
//   - WeeklyActivity  record count per UTC day over [now-7d, now), oldest first
//   - TopActivity     record count per declarer, highest first
//   - ModelUsage      record count per model identity, highest first
//
// Queries that match nothing return an empty result. Backend failures are
// returned as *DatabaseError.
package history

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/concave-dev/otto/internal/logging"
)

// DefaultLatestLimit is the LatestActivity size used when limit <= 0.
const DefaultLatestLimit = 5

// Backend is the storage and aggregation capability behind a Store.
type Backend interface {
	// Insert appends rec.
	Insert(ctx context.Context, rec Record) error

	// Latest returns up to limit records, most recently inserted first.
	Latest(ctx context.Context, limit int) ([]Record, error)

	// CountByDay counts records with timestamp in [from, to) per UTC day,
	// ascending by day.
	CountByDay(ctx context.Context, from, to time.Time) (Counts, error)

	// CountBy counts records per value of field, descending by count. Records
	// without the field are not counted.
	CountBy(ctx context.Context, field string) (Counts, error)

	Close(ctx context.Context) error
}

var (
	instanceMu   sync.Mutex
	instanceOpen bool
)

// Store is the process-wide intent history.
type Store struct {
	backend Backend
	now     func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// Open claims the process-wide slot and returns a store over backend.
func Open(backend Backend) (*Store, error) {
	if backend == nil {
		return nil, errors.New("history store requires a backend")
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instanceOpen {
		return nil, ErrMultipleInstances
	}
	instanceOpen = true

	return &Store{backend: backend, now: time.Now}, nil
}

// Close closes the backend and releases the process-wide slot. Further calls
// return the first result.
func (s *Store) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		s.closeErr = s.backend.Close(ctx)

		instanceMu.Lock()
		instanceOpen = false
		instanceMu.Unlock()
	})
	return s.closeErr
}

// SaveOption customizes a saved record.
type SaveOption func(*Record)

// WithModel records the model identity that fulfilled the intent.
func WithModel(model string) SaveOption {
	return func(r *Record) { r.Model = model }
}

// Save appends a processed intent and returns the stored record.
func (s *Store) Save(ctx context.Context, intent, declarer string, operations []string, timestamp time.Time, opts ...SaveOption) (Record, error) {
	rec := Record{
		DeclaredBy: declarer,
		Intent:     intent,
		Outcome:    slices.Clone(operations),
		Timestamp:  timestamp.UTC(),
	}
	if rec.Outcome == nil {
		rec.Outcome = []string{}
	}
	for _, opt := range opts {
		opt(&rec)
	}

	if err := s.backend.Insert(ctx, rec); err != nil {
		observe("save", err)
		return Record{}, &DatabaseError{Op: "save processed intent", Err: err}
	}
	observe("save", nil)

	logging.Debug("Saved processed intent from %s (%d operations)", declarer, len(rec.Outcome))
	return rec, nil
}

// LatestActivity returns the newest records, DefaultLatestLimit when
// limit <= 0. Records sharing a timestamp key keep only the newest.
func (s *Store) LatestActivity(ctx context.Context, limit int) (Activity, error) {
	if limit <= 0 {
		limit = DefaultLatestLimit
	}

	records, err := s.backend.Latest(ctx, limit)
	observe("latest", err)
	if err != nil {
		return nil, &DatabaseError{Op: "get latest activity", Err: err}
	}

	activity := make(Activity, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, rec := range records {
		key := rec.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		outcome := rec.Outcome
		if outcome == nil {
			outcome = []string{}
		}
		activity = append(activity, ActivityItem{
			Key:   key,
			Entry: ActivityEntry{DeclaredBy: rec.DeclaredBy, Intent: rec.Intent, Outcome: outcome},
		})
	}
	return activity, nil
}

// WeeklyActivity counts records per day over the last seven days.
func (s *Store) WeeklyActivity(ctx context.Context) (Counts, error) {
	to := s.now().UTC()
	from := to.AddDate(0, 0, -7)

	counts, err := s.backend.CountByDay(ctx, from, to)
	observe("weekly", err)
	if err != nil {
		return nil, &DatabaseError{Op: "get weekly activity", Err: err}
	}
	return nonNil(counts), nil
}

// TopActivity counts records per declarer.
func (s *Store) TopActivity(ctx context.Context) (Counts, error) {
	counts, err := s.backend.CountBy(ctx, FieldDeclaredBy)
	observe("top", err)
	if err != nil {
		return nil, &DatabaseError{Op: "get top activity", Err: err}
	}
	return nonNil(counts), nil
}

// ModelUsage counts records per model identity.
func (s *Store) ModelUsage(ctx context.Context) (Counts, error) {
	counts, err := s.backend.CountBy(ctx, FieldModel)
	observe("model_usage", err)
	if err != nil {
		return nil, &DatabaseError{Op: "get model usage", Err: err}
	}
	return nonNil(counts), nil
}

func nonNil(c Counts) Counts {
	if c == nil {
		return Counts{}
	}
	return c
}
