// Package drift computes the structural difference between the registered
// switch snapshot and the live state reported by the controller.
//
// Both sides are canonicalized through JSON first so values read from
// different stores compare by content (an int32 from MongoDB equals a
// float64 from sqlite or the controller). The comparison runs on go-cmp with a
// custom reporter that records every differing leaf, and a typed path matcher
// that ignores only the volatile flow counters:
//
//	<switch> -> installedFlows -> <table> -> <flow index> -> duration_sec | duration_nsec
//
// Any other difference, including a changed flow count, is reported.
package drift

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/go-cmp/cmp"
)

// Snapshot maps switch names to switch documents.
type Snapshot map[string]any

// ChangeKind classifies a single difference.
type ChangeKind string

const (
	// Added marks a value present only in the live state.
	Added ChangeKind = "added"

	// Removed marks a value present only in the registered snapshot.
	Removed ChangeKind = "removed"

	// Modified marks a value present on both sides with different content.
	Modified ChangeKind = "modified"
)

// Change is one differing leaf.
type Change struct {
	Switch string     `json:"switch"`
	Path   string     `json:"path"`
	Kind   ChangeKind `json:"kind"`
	Before any        `json:"before,omitempty"`
	After  any        `json:"after,omitempty"`
}

// Report is the outcome of one comparison.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Changes     []Change  `json:"changes"`

	// Switch-level summary, each sorted by name
	Added    []string `json:"added"`
	Removed  []string `json:"removed"`
	Modified []string `json:"modified"`
}

// Empty reports whether the two sides were equal.
func (r Report) Empty() bool {
	return len(r.Changes) == 0
}

// ChangesFor returns the changes recorded for one switch.
func (r Report) ChangesFor(name string) []Change {
	var out []Change
	for _, c := range r.Changes {
		if c.Switch == name {
			out = append(out, c)
		}
	}
	return out
}

// Compare diffs registered against live.
func Compare(registered, live Snapshot) (Report, error) {
	before, err := canonicalize(registered)
	if err != nil {
		return Report{}, fmt.Errorf("canonicalize registered snapshot: %w", err)
	}
	after, err := canonicalize(live)
	if err != nil {
		return Report{}, fmt.Errorf("canonicalize live state: %w", err)
	}

	var rep reporter
	cmp.Equal(before, after, cmp.Reporter(&rep), IgnoreVolatileCounters())

	report := Report{
		GeneratedAt: time.Now().UTC(),
		Changes:     rep.changes,
	}
	summarize(&report, before, after)
	return report, nil
}

// canonicalize round-trips s through JSON into plain maps, slices, strings,
// float64, bool and nil.
func canonicalize(s Snapshot) (map[string]any, error) {
	if s == nil {
		return map[string]any{}, nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func summarize(r *Report, before, after map[string]any) {
	touched := map[string]bool{}
	for _, c := range r.Changes {
		touched[c.Switch] = true
	}

	for name := range touched {
		_, inBefore := before[name]
		_, inAfter := after[name]
		switch {
		case inAfter && !inBefore:
			r.Added = append(r.Added, name)
		case inBefore && !inAfter:
			r.Removed = append(r.Removed, name)
		default:
			r.Modified = append(r.Modified, name)
		}
	}

	slices.Sort(r.Added)
	slices.Sort(r.Removed)
	slices.Sort(r.Modified)
}
