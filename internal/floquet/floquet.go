// Package floquet implements component F: expanding a single Floquet-tagged
// ctrl operation into its deterministic cycle train. Planning is pure —
// Plan returns a Schedule or a diagnostic, never mutates anything — so the
// emitter (internal/emit) owns the side effect of walking the cycles.
package floquet

import (
	"math"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

// Schedule is the fully-resolved per-cycle timing for one Floquet-expanded
// ctrl op (§4.D).
type Schedule struct {
	PeriodNs int64
	Cycles   int64
	OnNs     int64
	OffNs    int64
}

// Plan inspects op's overlay for the floquet_period/cycles/duty trio. It
// returns (nil, nil) when none of the three keys are present — the op is not
// Floquet at all. It returns (nil, diag) when some but not all three are
// present, or one is malformed — a lone Floquet key is always a Warn and
// never triggers expansion. Otherwise it returns the resolved Schedule.
func Plan(op *ir.Operation) (*Schedule, *ir.Diagnostic) {
	period, hasPeriod := op.Overlay["floquet_period"]
	cycles, hasCycles := op.Overlay["cycles"]
	duty, hasDuty := op.Overlay["duty"]

	if !hasPeriod && !hasCycles && !hasDuty {
		return nil, nil
	}
	if !hasPeriod || !hasCycles || !hasDuty {
		return nil, &ir.Diagnostic{
			Severity: ir.Warn, Line: op.Line, Op: op.Op,
			Msg: "floquet expansion requires floquet_period, cycles, and duty together; found only a subset",
		}
	}
	if period.Malformed || cycles.Malformed || duty.Malformed {
		return nil, &ir.Diagnostic{
			Severity: ir.Warn, Line: op.Line, Op: op.Op,
			Msg: "floquet expansion skipped: one of floquet_period/cycles/duty is malformed",
		}
	}

	on := int64(math.Round(float64(period.Int) * duty.Float))
	off := period.Int - on
	return &Schedule{PeriodNs: period.Int, Cycles: cycles.Int, OnNs: on, OffNs: off}, nil
}
