// Package emit implements the joint walk of components G (control-text
// emitter) and H (timeline scheduler): a single left-to-right pass over
// kernel operations under one shared monotonic ns cursor (§4.E).
package emit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dr-Loo/SQUINT/internal/floquet"
	"github.com/Dr-Loo/SQUINT/internal/ir"
)

// supportedGates are emitted as real play() lines; anything else passes
// through as an "# unsupported gate:" comment but still occupies a timeline
// slot so ordering is preserved (§4.E.2).
var supportedGates = map[string]bool{
	"x": true, "h": true, "rx": true, "cx": true, "cz": true,
}

// TimelineEntry is one scheduler record (§6.4).
type TimelineEntry struct {
	Line    int      `json:"line"`
	T       int64    `json:"t"`
	Op      string   `json:"op"`
	Ns      int64    `json:"ns,omitempty"`
	Targets []string `json:"targets,omitempty"`
	Outs    []string `json:"outs,omitempty"`
	Cycle   int64    `json:"cycle,omitempty"`
	Kind    string   `json:"kind,omitempty"`
}

// Result is the output of one emission walk: the control text, line by line,
// and the parallel timeline.
type Result struct {
	Text     []string
	Timeline []TimelineEntry
}

// Walk performs the joint emission pass described in §4.E over ops, which
// must already have passed through the overlay validator. Diagnostics
// discovered here (floquet's own lone-key warning) are appended to the
// owning operation, same as the overlay validator does.
func Walk(ops []*ir.Operation) (*Result, error) {
	w := &walker{}
	for _, op := range ops {
		if err := w.emitOp(op); err != nil {
			return nil, err
		}
	}
	return &Result{Text: w.text, Timeline: w.timeline}, nil
}

type walker struct {
	t        int64
	text     []string
	timeline []TimelineEntry
}

func (w *walker) emitOp(op *ir.Operation) error {
	switch op.Kind {
	case ir.KindQuantum:
		switch op.Op {
		case "ctrl":
			w.emitCtrl(op)
		case "measure":
			w.emitMeasure(op)
		default:
			return ir.NewParseError(op.Line, "emit: unrecognised quantum op %q", op.Op)
		}
	case ir.KindSemantic, ir.KindBraid:
		w.emitPassthrough(op)
	default:
		return ir.NewParseError(op.Line, "emit: unrecognised operation kind")
	}
	return nil
}

func (w *walker) emitCtrl(op *ir.Operation) {
	if cl, ok := op.Overlay["coherence_len"]; ok && !cl.Malformed {
		w.emitWait(op.Line, cl.Int, 0)
	}

	sched, diag := floquet.Plan(op)
	if diag != nil {
		op.Diagnostics = append(op.Diagnostics, *diag)
	}

	if sched != nil {
		w.text = append(w.text, floquetHeader(op, sched))
		for c := int64(1); c <= sched.Cycles; c++ {
			w.emitGateLine(op, fmt.Sprintf("%s@floquet", op.Gate), c)
			w.emitWait(op.Line, sched.OffNs, c)
		}
	} else {
		w.emitGateLine(op, op.Gate, 0)
	}

	if op.Guard != "" {
		w.text = append(w.text, fmt.Sprintf("# guarded_by: %s", op.Guard))
	}
}

func (w *walker) emitGateLine(op *ir.Operation, opName string, cycle int64) {
	if supportedGates[op.Gate] {
		args := []string{fmt.Sprintf("'%s'", op.Gate)}
		args = append(args, targetRefs(op.Targets)...)
		if op.Angle != "" {
			args = append(args, "angle="+op.Angle)
		}
		w.text = append(w.text, fmt.Sprintf("play(%s)", strings.Join(args, ", ")))
	} else {
		w.text = append(w.text, fmt.Sprintf("# unsupported gate: %s", op.Gate))
	}
	entry := TimelineEntry{Line: op.Line, T: w.t, Op: opName, Targets: targetRefs(op.Targets)}
	if cycle != 0 {
		entry.Cycle = cycle
	}
	w.timeline = append(w.timeline, entry)
}

func (w *walker) emitWait(line int, ns int64, cycle int64) {
	w.text = append(w.text, fmt.Sprintf("wait(%d)", ns))
	entry := TimelineEntry{Line: line, T: w.t, Op: "wait", Ns: ns}
	if cycle != 0 {
		entry.Cycle = cycle
	}
	w.timeline = append(w.timeline, entry)
	w.t += ns
}

func (w *walker) emitMeasure(op *ir.Operation) {
	w.text = append(w.text, fmt.Sprintf("measure(%s) -> %s",
		strings.Join(targetRefs(op.Targets), ", "), strings.Join(op.Outs, ", ")))
	w.timeline = append(w.timeline, TimelineEntry{
		Line: op.Line, T: w.t, Op: "measure", Targets: targetRefs(op.Targets), Outs: op.Outs,
	})
}

func (w *walker) emitPassthrough(op *ir.Operation) {
	tag := "semantic"
	if op.Kind == ir.KindBraid {
		tag = "braid"
	}
	if op.Raw != "" {
		w.text = append(w.text, fmt.Sprintf("# %s: %s %s", tag, op.Op, op.Raw))
	} else {
		w.text = append(w.text, fmt.Sprintf("# %s: %s", tag, op.Op))
	}
	w.timeline = append(w.timeline, TimelineEntry{Line: op.Line, T: w.t, Op: op.Op, Kind: tag})
}

func targetRefs(targets []int) []string {
	refs := make([]string, len(targets))
	for i, t := range targets {
		refs[i] = fmt.Sprintf("q[%d]", t)
	}
	return refs
}

func floquetHeader(op *ir.Operation, sched *floquet.Schedule) string {
	parts := []string{
		fmt.Sprintf("period=%dns", sched.PeriodNs),
		fmt.Sprintf("cycles=%d", sched.Cycles),
		fmt.Sprintf("duty=%s", formatFloat(op.Overlay["duty"].Float)),
	}
	if ps, ok := op.Overlay["phase_step"]; ok && !ps.Malformed {
		parts = append(parts, fmt.Sprintf("phase_step=%sdeg", formatFloat(ps.Float)))
	}
	return "# floquet: " + strings.Join(parts, ", ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
