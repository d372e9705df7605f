package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flow(priority int, durSec, durNsec int) map[string]any {
	return map[string]any{
		"priority":      priority,
		"match":         map[string]any{"in_port": 1},
		"actions":       []any{"OUTPUT:2"},
		"duration_sec":  durSec,
		"duration_nsec": durNsec,
	}
}

func switchDoc(name string, flows ...map[string]any) map[string]any {
	entries := make([]any, len(flows))
	for i, f := range flows {
		entries[i] = f
	}
	return map[string]any{
		"name":           name,
		"installedFlows": map[string]any{"0": entries},
	}
}

func TestCompareIgnoresDurationCounters(t *testing.T) {
	registered := Snapshot{"1": switchDoc("1", flow(100, 5, 1000), flow(200, 5, 2000))}
	live := Snapshot{"1": switchDoc("1", flow(100, 65, 9000), flow(200, 70, 1))}

	report, err := Compare(registered, live)
	require.NoError(t, err)

	assert.True(t, report.Empty(), "duration counters must not count as drift: %+v", report.Changes)
	assert.Empty(t, report.Modified)
}

func TestCompareReportsOtherFlowChanges(t *testing.T) {
	registered := Snapshot{"1": switchDoc("1", flow(100, 5, 0))}
	live := Snapshot{"1": switchDoc("1", flow(300, 99, 0))}

	report, err := Compare(registered, live)
	require.NoError(t, err)

	require.Len(t, report.Changes, 1)
	c := report.Changes[0]
	assert.Equal(t, "1", c.Switch)
	assert.Equal(t, "1.installedFlows.0[0].priority", c.Path)
	assert.Equal(t, Modified, c.Kind)
	assert.Equal(t, float64(100), c.Before)
	assert.Equal(t, float64(300), c.After)
	assert.Equal(t, []string{"1"}, report.Modified)
}

func TestCompareReportsFlowCountChange(t *testing.T) {
	registered := Snapshot{"1": switchDoc("1", flow(100, 5, 0))}
	live := Snapshot{"1": switchDoc("1", flow(100, 6, 0), flow(200, 1, 0))}

	report, err := Compare(registered, live)
	require.NoError(t, err)

	require.False(t, report.Empty())
	assert.Equal(t, []string{"1"}, report.Modified)

	var added []Change
	for _, c := range report.ChangesFor("1") {
		if c.Kind == Added {
			added = append(added, c)
		}
	}
	require.Len(t, added, 1)
	assert.Equal(t, "1.installedFlows.0[1]", added[0].Path)
	assert.Nil(t, added[0].Before)
}

func TestCompareSwitchLevelChanges(t *testing.T) {
	registered := Snapshot{
		"1": switchDoc("1", flow(100, 1, 0)),
		"2": switchDoc("2"),
	}
	live := Snapshot{
		"1": switchDoc("1", flow(100, 2, 0)),
		"3": switchDoc("3"),
	}

	report, err := Compare(registered, live)
	require.NoError(t, err)

	assert.Equal(t, []string{"3"}, report.Added)
	assert.Equal(t, []string{"2"}, report.Removed)
	assert.Empty(t, report.Modified)
}

func TestCompareNormalizesNumericTypes(t *testing.T) {
	registered := Snapshot{"1": map[string]any{"name": "1", "ports": int32(4)}}
	live := Snapshot{"1": map[string]any{"name": "1", "ports": float64(4)}}

	report, err := Compare(registered, live)
	require.NoError(t, err)
	assert.True(t, report.Empty())
}

func TestCompareDurationOutsideFlowsIsReported(t *testing.T) {
	registered := Snapshot{"1": map[string]any{"name": "1", "duration_sec": 1}}
	live := Snapshot{"1": map[string]any{"name": "1", "duration_sec": 2}}

	report, err := Compare(registered, live)
	require.NoError(t, err)

	require.Len(t, report.Changes, 1)
	assert.Equal(t, "1.duration_sec", report.Changes[0].Path)
}

func TestCompareNilSnapshots(t *testing.T) {
	report, err := Compare(nil, nil)
	require.NoError(t, err)
	assert.True(t, report.Empty())

	report, err = Compare(nil, Snapshot{"1": switchDoc("1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, report.Added)
}

func TestCompareRejectsUnencodableValues(t *testing.T) {
	_, err := Compare(Snapshot{"1": map[string]any{"ch": make(chan int)}}, nil)
	assert.Error(t, err)
}
