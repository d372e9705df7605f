package drift

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"
)

// reporter implements cmp's reporter interface and collects one Change per
// unequal leaf.
type reporter struct {
	path    cmp.Path
	changes []Change
}

func (r *reporter) PushStep(ps cmp.PathStep) {
	r.path = append(r.path, ps)
}

func (r *reporter) PopStep() {
	r.path = r.path[:len(r.path)-1]
}

func (r *reporter) Report(rs cmp.Result) {
	if rs.Equal() {
		return
	}

	vx, vy := r.path.Last().Values()
	c := Change{
		Switch: switchName(r.path),
		Path:   renderPath(r.path),
		Before: interfaceOf(vx),
		After:  interfaceOf(vy),
	}
	switch {
	case !vx.IsValid():
		c.Kind = Added
	case !vy.IsValid():
		c.Kind = Removed
	default:
		c.Kind = Modified
	}
	r.changes = append(r.changes, c)
}

func interfaceOf(v reflect.Value) any {
	if !v.IsValid() || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// structuralSteps drops the root step and the type assertions cmp inserts
// when descending through interface values.
func structuralSteps(p cmp.Path) []cmp.PathStep {
	steps := make([]cmp.PathStep, 0, len(p))
	for i, ps := range p {
		if i == 0 {
			continue
		}
		if _, ok := ps.(cmp.TypeAssertion); ok {
			continue
		}
		steps = append(steps, ps)
	}
	return steps
}

func switchName(p cmp.Path) string {
	steps := structuralSteps(p)
	if len(steps) == 0 {
		return ""
	}
	if mi, ok := steps[0].(cmp.MapIndex); ok {
		return fmt.Sprint(mi.Key().Interface())
	}
	return ""
}

// renderPath renders a path as "1.installedFlows.0[2].priority".
func renderPath(p cmp.Path) string {
	var b strings.Builder
	for _, ps := range structuralSteps(p) {
		switch s := ps.(type) {
		case cmp.MapIndex:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			fmt.Fprint(&b, s.Key().Interface())
		case cmp.SliceIndex:
			ix, iy := s.SplitKeys()
			idx := ix
			if idx < 0 {
				idx = iy
			}
			fmt.Fprintf(&b, "[%d]", idx)
		}
	}
	return b.String()
}
