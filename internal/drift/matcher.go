package drift

import (
	"github.com/google/go-cmp/cmp"
)

// Segment matches one structural path step.
type Segment struct {
	// Keys lists accepted map keys. Empty accepts any key.
	Keys []string

	// Index marks a slice element step (any index).
	Index bool
}

// AnyKey matches any map key.
func AnyKey() Segment { return Segment{} }

// Key matches one of the given map keys.
func Key(keys ...string) Segment { return Segment{Keys: keys} }

// AnyIndex matches any slice index.
func AnyIndex() Segment { return Segment{Index: true} }

// PathPattern is a typed path matcher over map keys and slice indices.
type PathPattern []Segment

// VolatileCounters matches the per-flow duration counters.
var VolatileCounters = PathPattern{
	AnyKey(),
	Key("installedFlows"),
	AnyKey(),
	AnyIndex(),
	Key("duration_sec", "duration_nsec"),
}

// Match reports whether p addresses exactly the pattern.
func (pp PathPattern) Match(p cmp.Path) bool {
	steps := structuralSteps(p)
	if len(steps) != len(pp) {
		return false
	}

	for i, seg := range pp {
		switch s := steps[i].(type) {
		case cmp.SliceIndex:
			if !seg.Index {
				return false
			}
		case cmp.MapIndex:
			if seg.Index {
				return false
			}
			if len(seg.Keys) == 0 {
				continue
			}
			key, ok := s.Key().Interface().(string)
			if !ok || !contains(seg.Keys, key) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Ignore returns a cmp option that skips values whose path matches.
func (pp PathPattern) Ignore() cmp.Option {
	return cmp.FilterPath(pp.Match, cmp.Ignore())
}

// IgnoreVolatileCounters ignores the duration_sec and duration_nsec counters
// of every installed flow.
func IgnoreVolatileCounters() cmp.Option {
	return VolatileCounters.Ignore()
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
