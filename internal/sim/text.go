package sim

import (
	"fmt"
	"strings"
)

// Format renders a human-readable rendition of the trace for `--simulate`'s
// `<FILE>.sim.txt` output. Measurements print in MeasureOrder, the sequence
// they were actually encountered in, rather than map order, so the text
// report is as deterministic as the JSON one (§5).
func (t *Trace) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Phi.base: %v\n", t.Fields.Phi.Base)
	fmt.Fprintf(&b, "D.coords: %s\n", formatCoords(t.Defects.D.Coords))
	fmt.Fprintf(&b, "D.density: %v\n", t.Defects.D.Density)
	fmt.Fprintf(&b, "D.phase: %v\n", t.Defects.D.Phase)

	fmt.Fprintf(&b, "measurements:\n")
	for _, name := range t.MeasureOrder {
		fmt.Fprintf(&b, "  %s = %d\n", name, t.Measurements[name])
	}

	if t.LatestObs != nil {
		o := t.LatestObs
		fmt.Fprintf(&b, "latest_obs: %s = %v (base=%v defects_term=%v field_term=%v)\n",
			o.Into, o.TEff, o.Base, o.DefectsTerm, o.FieldTerm)
	}

	fmt.Fprintf(&b, "events:\n")
	for _, e := range t.Events {
		fmt.Fprintf(&b, "  %s\n", formatEvent(e))
	}
	return b.String()
}

func formatCoords(coords []Coord) string {
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = fmt.Sprintf("(%d,%d)", c.X, c.Y)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatEvent(e Event) string {
	switch e.Op {
	case "init_phi":
		return fmt.Sprintf("init_phi value=%v", e.Value)
	case "nucleate":
		return fmt.Sprintf("nucleate coords=%s density=%v", formatCoords(e.Coords), e.Density)
	case "evolve":
		return fmt.Sprintf("evolve density=%v phase=%v", e.Density, e.Phase)
	case "quench":
		return fmt.Sprintf("quench amount=%v new_density=%v", e.Amount, e.NewDensity)
	case "observe":
		return fmt.Sprintf("observe into=%s value=%v", e.Into, e.Value)
	case "hysteresis":
		return fmt.Sprintf("hysteresis window=%d trace=%v", e.Window, e.Trace)
	case "measure":
		return fmt.Sprintf("measure values=%v", e.Values)
	case "return":
		return fmt.Sprintf("return spec=%s", e.Spec)
	default:
		return fmt.Sprintf("%s args=%s", e.Op, e.Args)
	}
}
